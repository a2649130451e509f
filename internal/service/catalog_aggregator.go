package service

import (
	"sort"
	"storefront-service/internal/entity"
)

// AggregateProducts joins flat product, image and variant rows into catalog views. Rows are
// grouped in memory by product id so the whole listing costs three queries. Inactive products
// are dropped even if the caller passed them in.
func AggregateProducts(products []entity.Product, images []entity.ProductImage, variants []entity.ProductVariant) []entity.ProductView {
	imagesByProduct := make(map[int][]entity.ProductImage)
	for _, image := range images {
		imagesByProduct[image.ProductID] = append(imagesByProduct[image.ProductID], image)
	}

	variantsByProduct := make(map[int][]entity.ProductVariant)
	for _, variant := range variants {
		variantsByProduct[variant.ProductID] = append(variantsByProduct[variant.ProductID], variant)
	}

	views := make([]entity.ProductView, 0, len(products))
	for _, product := range products {
		if !product.Active() {
			continue
		}
		views = append(views, productView(product, imagesByProduct[product.ID], variantsByProduct[product.ID]))
	}
	return views
}

func productView(product entity.Product, images []entity.ProductImage, variants []entity.ProductVariant) entity.ProductView {
	return entity.ProductView{
		ID:          product.ID,
		Name:        product.Name,
		Type:        product.Type,
		Price:       product.Price,
		Description: product.Description,
		Images:      mergeImages(product.Image, images),
		Variants:    variantViews(variants),
		Featured:    product.Featured,
	}
}

// mergeImages puts the primary image first, then the gallery by sort order. Exact duplicate
// paths keep their first position; empty paths are skipped.
func mergeImages(primary string, gallery []entity.ProductImage) []string {
	ordered := make([]entity.ProductImage, len(gallery))
	copy(ordered, gallery)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	paths := make([]string, 0, len(ordered)+1)
	seen := make(map[string]struct{}, len(ordered)+1)
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	add(primary)
	for _, image := range ordered {
		add(image.Path)
	}
	return paths
}

// variantViews returns name and price only, cheapest first.
func variantViews(variants []entity.ProductVariant) []entity.VariantView {
	ordered := make([]entity.ProductVariant, len(variants))
	copy(ordered, variants)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Price.LessThan(ordered[j].Price)
	})

	views := make([]entity.VariantView, 0, len(ordered))
	for _, variant := range ordered {
		views = append(views, entity.VariantView{Name: variant.Name, Price: variant.Price})
	}
	return views
}

// featuredView is the short form used on the landing page: primary image only, no variants.
func featuredView(product entity.Product) entity.FeaturedProductView {
	images := []string{}
	if product.Image != "" {
		images = append(images, product.Image)
	}
	return entity.FeaturedProductView{
		ID:          product.ID,
		Name:        product.Name,
		Type:        product.Type,
		Price:       product.Price,
		Description: product.Description,
		Images:      images,
		Featured:    product.Featured,
	}
}
