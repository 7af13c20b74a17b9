package cli

import (
	"context"
	"fmt"

	"auboutique/internal/client/client"
)

func (a *App) printProducts(items []client.Product) {
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No products found")
		return
	}
	for _, p := range items {
		fmt.Fprintf(a.out, "#%d %s - %.2f USD (%s), qty %d\n", p.ID, p.Name, p.Price, p.Category, p.Quantity)
		if p.Description != "" {
			fmt.Fprintf(a.out, "    %s\n", p.Description)
		}
	}
}

func (a *App) ListProducts(ctx context.Context) error {
	items, err := a.api.Products(ctx)
	if err != nil {
		return err
	}
	a.printProducts(items)
	return nil
}

func (a *App) SearchProducts(ctx context.Context) error {
	term, err := getSimpleText(a.reader, "Search term (empty for full catalog)", a.out)
	if err != nil {
		return err
	}

	items, err := a.api.SearchProduct(ctx, term)
	if err != nil {
		return err
	}
	a.printProducts(items)
	return nil
}

func (a *App) SellerProducts(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Seller username", a.out)
	if err != nil {
		return err
	}

	items, err := a.api.SearchUserProducts(ctx, username)
	if err != nil {
		return err
	}
	a.printProducts(items)
	return nil
}

func (a *App) AddProduct(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Product name", a.out)
	if err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Category", a.out)
	if err != nil {
		return err
	}
	price, err := GetFloat(a.reader, "Price (USD)", a.out)
	if err != nil {
		return err
	}
	description, err := getSimpleText(a.reader, "Description", a.out)
	if err != nil {
		return err
	}
	image, err := getSimpleText(a.reader, "Image reference", a.out)
	if err != nil {
		return err
	}
	quantity, err := GetInt(a.reader, "Quantity", a.out)
	if err != nil {
		return err
	}

	msg, err := a.api.AddProduct(ctx, a.userID, client.Product{
		Name:        name,
		Category:    category,
		Price:       price,
		Description: description,
		Image:       image,
		Quantity:    quantity,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) BuyProduct(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	productID, err := GetInt(a.reader, "Product id", a.out)
	if err != nil {
		return err
	}

	msg, err := a.api.BuyProduct(ctx, a.userID, int64(productID))
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) RateProduct(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	productID, err := GetInt(a.reader, "Product id", a.out)
	if err != nil {
		return err
	}
	rating, err := GetInt(a.reader, "Rating (1-5)", a.out)
	if err != nil {
		return err
	}

	msg, err := a.api.RateProduct(ctx, a.userID, int64(productID), rating)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) AverageRating(ctx context.Context) error {
	productID, err := GetInt(a.reader, "Product id", a.out)
	if err != nil {
		return err
	}

	avg, err := a.api.AverageRating(ctx, int64(productID))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Average rating: %.1f\n", avg)
	return nil
}
