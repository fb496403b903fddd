package register

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/drinkpos/internal/analytics"
	"github.com/noah-isme/drinkpos/internal/cart"
	"github.com/noah-isme/drinkpos/internal/checkout"
	"github.com/noah-isme/drinkpos/internal/menu"
	"github.com/noah-isme/drinkpos/internal/obs"
	"github.com/noah-isme/drinkpos/internal/order"
	"github.com/noah-isme/drinkpos/internal/promo"
	"github.com/noah-isme/drinkpos/internal/receipt"
)

// ErrCartNotFound is returned for an unknown or closed cart id.
var ErrCartNotFound = errors.New("cart not found")

// Item limits, kept in step with the validate tags on ItemInput.
const (
	MaxQuantity = 99
	MaxShots    = 20
)

// ItemInput describes a drink to add to a cart.
type ItemInput struct {
	Name          string `json:"name" validate:"required,max=80"`
	Size          string `json:"size" validate:"required,max=20"`
	Quantity      int    `json:"quantity" validate:"min=1,max=99"`
	VanillaShots  int    `json:"vanillaShots" validate:"min=0,max=20"`
	EspressoShots int    `json:"espressoShots" validate:"min=0,max=20"`
}

// CartView is a read-only snapshot of an open cart.
type CartView struct {
	ID        uuid.UUID       `json:"id"`
	Lines     []cart.Line     `json:"lines"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Options configures a Service. Zero values fall back to an empty catalog, the wall clock,
// the local timezone and a receipt store that discards.
type Options struct {
	Catalog  *menu.Catalog
	Location *time.Location
	Now      func() time.Time
	Stats    *analytics.Stats
	History  *order.History
	Receipts receipt.Store
	// StoreName labels receipt metrics, e.g. "file" or "redis".
	StoreName string
	// SaveReceipts persists every receipt at checkout. The terminal front end leaves it
	// off and asks the customer instead.
	SaveReceipts bool
	Logger       zerolog.Logger
}

// Service is the ordering register shared by the HTTP API and the terminal session. Open
// carts live in memory; finalized orders go to the history and the sales stats.
type Service struct {
	catalog      *liveCatalog
	calc         *checkout.Calculator
	history      *order.History
	stats        *analytics.Stats
	receipts     receipt.Store
	storeName    string
	saveReceipts bool
	log          zerolog.Logger
	validate     *validator.Validate

	mu    sync.Mutex
	carts map[uuid.UUID]*cart.Cart
}

// New builds a register around opts.
func New(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	live := &liveCatalog{}
	live.Store(opts.Catalog)

	calc := checkout.NewCalculator(promo.NewSelector(promo.Default(live, now, loc)...))
	calc.Now = now

	s := &Service{
		catalog:      live,
		calc:         calc,
		history:      opts.History,
		stats:        opts.Stats,
		receipts:     opts.Receipts,
		storeName:    opts.StoreName,
		saveReceipts: opts.SaveReceipts,
		log:          opts.Logger,
		validate:     newValidator(),
		carts:        make(map[uuid.UUID]*cart.Cart),
	}
	if s.history == nil {
		s.history = order.NewHistory()
	}
	if s.stats == nil {
		s.stats = analytics.NewStats()
	}
	if s.receipts == nil {
		s.receipts = receipt.NopStore{}
	}
	if s.storeName == "" {
		s.storeName = "none"
	}
	return s
}

// Catalog returns the menu currently in use.
func (s *Service) Catalog() *menu.Catalog { return s.catalog.Load() }

// ReloadMenu swaps in a new catalog. Open carts keep the drinks they already hold.
func (s *Service) ReloadMenu(c *menu.Catalog) {
	s.catalog.Store(c)
	s.log.Info().Int("drinks", c.Len()).Msg("menu reloaded")
}

// CatalogKeys lists the current menu keys in catalog order.
func (s *Service) CatalogKeys() []menu.Key { return s.catalog.Load().Keys() }

// Stats exposes the sales aggregator for read-only queries.
func (s *Service) Stats() *analytics.Stats { return s.stats }

// Menu lists drinks, optionally limited to one category. An empty category lists everything.
func (s *Service) Menu(category string) ([]menu.Drink, error) {
	c := s.catalog.Load()
	if category == "" {
		return c.Entries(), nil
	}
	cat, err := menu.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	return c.ByCategory(cat), nil
}

// OpenCart starts a new empty cart.
func (s *Service) OpenCart() uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.carts[id] = cart.New()
	open := len(s.carts)
	s.mu.Unlock()
	setOpenCarts(open)
	return id
}

// CloseCart discards a cart and anything still in it.
func (s *Service) CloseCart(id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.carts[id]; !ok {
		s.mu.Unlock()
		return ErrCartNotFound
	}
	delete(s.carts, id)
	open := len(s.carts)
	s.mu.Unlock()
	setOpenCarts(open)
	return nil
}

// Cart returns a snapshot of an open cart.
func (s *Service) Cart(id uuid.UUID) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[id]
	if !ok {
		return CartView{}, ErrCartNotFound
	}
	return view(id, c), nil
}

// AddItem validates in, resolves the drink on the current menu and appends a line. It
// returns the new line's index.
func (s *Service) AddItem(id uuid.UUID, in ItemInput) (int, CartView, error) {
	if err := s.validate.Struct(in); err != nil {
		return 0, CartView{}, err
	}
	drink, err := s.catalog.Load().Find(in.Name, in.Size)
	if err != nil {
		return 0, CartView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[id]
	if !ok {
		return 0, CartView{}, ErrCartNotFound
	}
	idx := c.Add(cart.NewLine(drink, in.Quantity, in.VanillaShots, in.EspressoShots))
	return idx, view(id, c), nil
}

// RemoveItem drops the line at index.
func (s *Service) RemoveItem(id uuid.UUID, index int) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[id]
	if !ok {
		return CartView{}, ErrCartNotFound
	}
	if err := c.Remove(index); err != nil {
		return CartView{}, err
	}
	return view(id, c), nil
}

// Quote prices the cart without finalizing it.
func (s *Service) Quote(id uuid.UUID) (checkout.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[id]
	if !ok {
		return checkout.Quote{}, ErrCartNotFound
	}
	return s.calc.Quote(c)
}

// Checkout finalizes the cart: the order is priced, recorded in the history, folded into
// the sales stats, and the cart is emptied for reuse. An empty cart or a canceled ctx records
// nothing.
func (s *Service) Checkout(ctx context.Context, id uuid.UUID) (order.Order, error) {
	ctx, span := obs.Tracer().Start(ctx, "register.Checkout")
	defer span.End()
	span.SetAttributes(attribute.String("cart.id", id.String()))

	o, err := s.finalize(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observeCheckout(order.NoPromotion, "rejected")
		return order.Order{}, err
	}
	span.SetAttributes(
		attribute.String("order.id", o.ID.String()),
		attribute.String("order.promotion", o.Promotion),
		attribute.String("order.total", o.FinalTotal.StringFixed(2)),
	)
	observeOrder(o)
	s.log.Info().
		Str("order_id", o.ID.String()).
		Str("promotion", o.Promotion).
		Str("discount", o.Discount.StringFixed(2)).
		Str("total", o.FinalTotal.StringFixed(2)).
		Int("items", o.ItemCount()).
		Msg("order checked out")

	if s.saveReceipts {
		// The order is already recorded; a failed save is logged, not returned.
		_ = s.SaveReceipt(ctx, o)
	}
	return o, nil
}

func (s *Service) finalize(ctx context.Context, id uuid.UUID) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return order.Order{}, err
	}
	c, ok := s.carts[id]
	if !ok {
		return order.Order{}, ErrCartNotFound
	}
	o, err := s.calc.Checkout(c)
	if err != nil {
		return order.Order{}, err
	}
	s.history.Append(o)
	s.stats.Fold(o)
	c.Clear()
	return o, nil
}

// SaveReceipt renders o and hands it to the receipt store.
func (s *Service) SaveReceipt(ctx context.Context, o order.Order) error {
	err := s.receipts.Save(ctx, o, receipt.Render(o))
	result := "ok"
	if err != nil {
		result = "error"
		s.log.Error().Err(err).Str("order_id", o.ID.String()).Str("store", s.storeName).Msg("save receipt")
	}
	if obs.ReceiptSavesTotal != nil {
		obs.ReceiptSavesTotal.WithLabelValues(s.storeName, result).Inc()
	}
	if err != nil {
		return fmt.Errorf("save receipt %s: %w", o.ID, err)
	}
	return nil
}

// Orders returns a page of the order history and the total number of orders.
func (s *Service) Orders(offset, limit int) ([]order.Order, int) {
	return s.history.List(offset, limit), s.history.Len()
}

// Order looks up a finalized order.
func (s *Service) Order(id uuid.UUID) (order.Order, error) {
	return s.history.Get(id)
}

// Receipt renders the receipt of a finalized order.
func (s *Service) Receipt(id uuid.UUID) (string, error) {
	o, err := s.history.Get(id)
	if err != nil {
		return "", err
	}
	return receipt.Render(o), nil
}

// Summary snapshots the sales stats against the current menu.
func (s *Service) Summary() analytics.Summary {
	return s.stats.Summarize(s.CatalogKeys())
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func view(id uuid.UUID, c *cart.Cart) CartView {
	return CartView{ID: id, Lines: c.Lines(), ItemCount: c.TotalQuantity(), Subtotal: c.Subtotal()}
}

// liveCatalog lets promotions read whichever menu is current without holding a copy.
type liveCatalog struct {
	atomic.Pointer[menu.Catalog]
}

func (l *liveCatalog) Names() []string { return l.Load().Names() }

func (l *liveCatalog) CheapestPrice(name string) (decimal.Decimal, bool) {
	return l.Load().CheapestPrice(name)
}

func setOpenCarts(n int) {
	if obs.OpenCarts != nil {
		obs.OpenCarts.Set(float64(n))
	}
}

func observeCheckout(promotion, result string) {
	if obs.CheckoutsTotal != nil {
		obs.CheckoutsTotal.WithLabelValues(promotion, result).Inc()
	}
}

func observeOrder(o order.Order) {
	observeCheckout(o.Promotion, "ok")
	if obs.OrderValue != nil {
		obs.OrderValue.Observe(o.FinalTotal.InexactFloat64())
	}
	if obs.DiscountTotal != nil && o.Discounted() {
		obs.DiscountTotal.WithLabelValues(o.Promotion).Add(o.Discount.InexactFloat64())
	}
	if obs.DrinksSoldTotal != nil {
		for _, l := range o.Lines() {
			obs.DrinksSoldTotal.WithLabelValues(string(l.Drink().Category())).Add(float64(l.Quantity()))
		}
	}
}
