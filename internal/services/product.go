package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	insurancerepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/insurance"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	instypes "github.com/sorosurance/sorosurance-backend/internal/domain/insurance"
	usertypes "github.com/sorosurance/sorosurance-backend/internal/domain/user"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type ProductService interface {
	ListActive(dbc dbctx.Context) ([]*instypes.Product, error)
	Get(dbc dbctx.Context, productID uuid.UUID) (*instypes.Product, error)
	Create(dbc dbctx.Context, product *instypes.Product) (*instypes.Product, error)
	SetActive(dbc dbctx.Context, productID uuid.UUID, active bool) error
}

type productService struct {
	db       *gorm.DB
	log      *logger.Logger
	products insurancerepo.ProductRepo
	users    userrepo.UserRepo
}

func NewProductService(db *gorm.DB, baseLog *logger.Logger, products insurancerepo.ProductRepo, users userrepo.UserRepo) ProductService {
	return &productService{
		db:       db,
		log:      baseLog.With("service", "ProductService"),
		products: products,
		users:    users,
	}
}

func (s *productService) ListActive(dbc dbctx.Context) ([]*instypes.Product, error) {
	return s.products.ListActive(dbc)
}

func (s *productService) Get(dbc dbctx.Context, productID uuid.UUID) (*instypes.Product, error) {
	found, err := s.products.GetByIDs(dbc, []uuid.UUID{productID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errors.ErrNotFound
	}
	return found[0], nil
}

func (s *productService) Create(dbc dbctx.Context, product *instypes.Product) (*instypes.Product, error) {
	if err := s.requireAdmin(dbc); err != nil {
		return nil, err
	}
	if product == nil || product.Name == "" || product.ProductType == "" {
		return nil, fmt.Errorf("product name and type required: %w", errors.ErrInvalidArgument)
	}
	if product.BasePremium <= 0 || product.MinPremium <= 0 || product.MaxPremium < product.MinPremium {
		return nil, fmt.Errorf("invalid premium band: %w", errors.ErrInvalidArgument)
	}
	product.ID = uuid.New()
	product.IsActive = true
	created, err := s.products.Create(dbc, []*instypes.Product{product})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *productService) SetActive(dbc dbctx.Context, productID uuid.UUID, active bool) error {
	if err := s.requireAdmin(dbc); err != nil {
		return err
	}
	return s.products.UpdateFields(dbc, productID, map[string]interface{}{
		"is_active": active,
	})
}

func (s *productService) requireAdmin(dbc dbctx.Context) error {
	userID, err := requestUserID(dbc)
	if err != nil {
		return err
	}
	users, err := s.users.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return errors.ErrUnauthorized
	}
	if users[0].UserType != usertypes.TypeAdmin {
		return errors.ErrForbidden
	}
	return nil
}
