package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/minashop/api/internal/domain"
	pfirestore "github.com/minashop/api/internal/platform/firestore"
	"github.com/minashop/api/internal/platform/textutil"
	"github.com/minashop/api/internal/repositories"
)

const productsCollection = "products"

type productDocument struct {
	Name           string    `firestore:"name"`
	Slug           string    `firestore:"slug"`
	Description    string    `firestore:"description,omitempty"`
	Images         []string  `firestore:"images"`
	Price          float64   `firestore:"price"`
	OldPrice       float64   `firestore:"oldPrice"`
	Category       string    `firestore:"category"`
	Variants       []string  `firestore:"variants,omitempty"`
	Stock          int       `firestore:"stock"`
	IsActive       bool      `firestore:"isActive"`
	SearchKeywords []string  `firestore:"searchKeywords"`
	CreatedAt      time.Time `firestore:"createdAt"`
	UpdatedAt      time.Time `firestore:"updatedAt"`
}

// ProductRepository persists catalog entries. Search relies on the
// searchKeywords token array maintained on every write.
type ProductRepository struct {
	provider *pfirestore.Provider
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{provider: provider}, nil
}

// Insert creates the product document.
func (r *ProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	if product == nil || product.ID == "" {
		return errors.New("product id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(productsCollection).Doc(product.ID).Create(ctx, encodeProduct(product))
	if err != nil {
		return pfirestore.WrapError("products.insert", err)
	}
	return nil
}

// Update rewrites the product document.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if product == nil || product.ID == "" {
		return errors.New("product id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(productsCollection).Doc(product.ID).Set(ctx, encodeProduct(product))
	if err != nil {
		return pfirestore.WrapError("products.update", err)
	}
	return nil
}

// Delete removes the product document.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return pfirestore.NotFoundError("products.delete")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(productsCollection).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		return pfirestore.WrapError("products.delete", err)
	}
	return nil
}

// FindByID loads one product.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pfirestore.NotFoundError("products.findByID")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := client.Collection(productsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("products.findByID", err)
	}
	return decodeProduct(snapshot)
}

// List returns products newest first. A search term matches on the first
// folded token via array-contains; remaining tokens are checked in memory
// because Firestore permits a single array-contains clause per query.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	var page domain.CursorPage[domain.Product]

	client, err := r.provider.Client(ctx)
	if err != nil {
		return page, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := client.Collection(productsCollection).Query
	if !filter.IncludeInactive {
		query = query.Where("isActive", "==", true)
	}
	if filter.Category != "" {
		query = query.Where("category", "==", filter.Category)
	}

	tokens := textutil.Keywords(filter.Search)
	if len(tokens) > 0 {
		query = query.Where("searchKeywords", "array-contains", tokens[0])
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	if filter.Cursor != "" {
		cursorSnap, err := client.Collection(productsCollection).Doc(filter.Cursor).Get(ctx)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return page, pfirestore.WrapError("products.list", err)
			}
		} else {
			query = query.StartAfter(cursorSnap.Data()["createdAt"])
		}
	}

	iter := query.Limit(limit + 1).Documents(ctx)
	defer iter.Stop()

	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return page, pfirestore.WrapError("products.list", err)
		}
		if len(page.Items) == limit {
			page.NextCursor = page.Items[len(page.Items)-1].ID
			break
		}
		product, err := decodeProduct(snapshot)
		if err != nil {
			return page, err
		}
		if len(tokens) > 1 && !containsAll(product.SearchKeywords, tokens[1:]) {
			continue
		}
		page.Items = append(page.Items, *product)
	}
	return page, nil
}

func containsAll(haystack, needles []string) bool {
	set := make(map[string]struct{}, len(haystack))
	for _, item := range haystack {
		set[item] = struct{}{}
	}
	for _, needle := range needles {
		if _, ok := set[needle]; !ok {
			return false
		}
	}
	return true
}

func encodeProduct(product *domain.Product) productDocument {
	return productDocument{
		Name:           product.Name,
		Slug:           product.Slug,
		Description:    product.Description,
		Images:         product.Images,
		Price:          product.Price,
		OldPrice:       product.OldPrice,
		Category:       product.Category,
		Variants:       product.Variants,
		Stock:          product.Stock,
		IsActive:       product.IsActive,
		SearchKeywords: product.SearchKeywords,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}

func decodeProduct(snapshot *firestore.DocumentSnapshot) (*domain.Product, error) {
	var doc productDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", snapshot.Ref.ID, err)
	}
	return &domain.Product{
		ID:             snapshot.Ref.ID,
		Name:           doc.Name,
		Slug:           doc.Slug,
		Description:    doc.Description,
		Images:         doc.Images,
		Price:          doc.Price,
		OldPrice:       doc.OldPrice,
		Category:       doc.Category,
		Variants:       doc.Variants,
		Stock:          doc.Stock,
		IsActive:       doc.IsActive,
		SearchKeywords: doc.SearchKeywords,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}
