package shop

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"WatchShop/internal/catalog"
	"WatchShop/pkg/kit"
)

type Server struct {
	Catalog   *catalog.Store
	Snapshots catalog.SnapshotStore
	Metrics   *Metrics
	Log       *zap.Logger
}

type createReq struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         uint64 `json:"price"`
	Quantity      uint64 `json:"quantity"`
	IsHandcrafted bool   `json:"is_handcrafted"`
}

type createResp struct {
	ID uint64 `json:"id"`
}

type buyReq struct {
	Quantity uint64 `json:"quantity"`
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Catalog.ListListings())
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}

	l, err := s.Catalog.Listing(id)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, l)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	c, _ := CallerFromContext(r.Context())

	var req createReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	l, err := s.Catalog.CreateListing(catalog.NewListing{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Handcrafted: req.IsHandcrafted,
	})
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}

	s.Metrics.listingCreated()
	s.Log.Info("listing created",
		zap.Uint64("product_id", l.ID),
		zap.String("by", c.ID),
		zap.Uint64("price", l.Price),
		zap.Uint64("quantity", l.Quantity),
	)

	w.Header().Set("Location", "/products/"+strconv.FormatUint(l.ID, 10))
	kit.WriteJSON(w, http.StatusCreated, createResp{ID: l.ID})
}

func (s *Server) buy(w http.ResponseWriter, r *http.Request) {
	c, ok := CallerFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no caller", nil)
		return
	}

	id, ok := listingID(w, r)
	if !ok {
		return
	}

	var req buyReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p, err := s.Catalog.Purchase(c.ID, id, req.Quantity)
	if err != nil {
		s.Metrics.purchase(purchaseResult(err), 0, 0)
		s.writeCatalogError(w, r, err)
		return
	}

	s.Metrics.purchase(resultOK, p.Quantity, p.TotalPrice)
	s.Log.Info("purchase completed",
		zap.String("buyer", p.Buyer),
		zap.Uint64("product_id", p.ListingID),
		zap.Uint64("quantity", p.Quantity),
		zap.Uint64("total_price", p.TotalPrice),
	)
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) purchases(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Catalog.Purchases())
}

func (s *Server) myPurchases(w http.ResponseWriter, r *http.Request) {
	c, _ := CallerFromContext(r.Context())
	kit.WriteJSON(w, http.StatusOK, s.Catalog.PurchasesByBuyer(c.ID))
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Catalog.Stats())
}

func listingID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", err.Error())
	case errors.Is(err, catalog.ErrInsufficientStock):
		kit.WriteError(w, r, http.StatusConflict, "insufficient stock", err.Error())
	case errors.Is(err, catalog.ErrInvalidArgument):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid argument", err.Error())
	default:
		s.Log.Error("catalog operation failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func purchaseResult(err error) string {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return resultNotFound
	case errors.Is(err, catalog.ErrInsufficientStock):
		return resultInsufficientStock
	default:
		return resultInvalid
	}
}
