package cli

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// GetSimpleText prints a prompt to w and reads a single line of input from
// reader. The trailing newline is trimmed. If EOF occurs after some input
// was read, the partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetInt prompts like GetSimpleText and parses the reply as an integer.
func GetInt(reader *bufio.Reader, prompt string, w io.Writer) (int, error) {
	text, err := GetSimpleText(reader, prompt, w)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(text)
}

// GetFloat prompts like GetSimpleText and parses the reply as a float.
func GetFloat(reader *bufio.Reader, prompt string, w io.Writer) (float64, error) {
	text, err := GetSimpleText(reader, prompt, w)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(text, 64)
}

// GetPassword prints a password prompt to w and reads a password from the
// user's terminal without echo. A newline is printed after the read to
// keep the UI tidy.
func GetPassword(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// PasswordDigest is the client-side SHA-256 hex digest sent in place of
// the plain password. The server never sees the password itself; it
// bcrypts this digest before storing.
func PasswordDigest(password []byte) string {
	sum := sha256.Sum256(password)
	return hex.EncodeToString(sum[:])
}
