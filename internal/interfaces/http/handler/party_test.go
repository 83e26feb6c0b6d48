package handler

import (
	"errors"
	"net/http"
	"testing"

	partnerapp "github.com/erp/backoffice/internal/application/partner"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPartyRouter(directory PartyDirectory, tc shared.TenantContext) *gin.Engine {
	h := NewPartyHandler(directory)
	engine := testEngine(tc)
	engine.POST("/parties", h.Create)
	engine.GET("/parties", h.List)
	engine.GET("/parties/:id", h.GetByID)
	engine.PATCH("/parties/:id", h.Update)
	engine.DELETE("/parties/:id", h.Delete)
	engine.GET("/parties/by-tax-id/:taxId", h.GetByTaxID)
	return engine
}

func TestPartyHandler_Create(t *testing.T) {
	tc := shared.ForTenant(uuid.New())

	t.Run("created", func(t *testing.T) {
		directory := new(MockPartyDirectory)
		view := &partner.PartyView{ID: uuid.New(), Numero: 1, IsClient: true, Name: "Acme"}
		directory.On("Create", anyCtx, tc, mock.MatchedBy(func(req partnerapp.CreatePartyRequest) bool {
			return req.Name == "Acme" && req.TaxID == "PT 501-234-567"
		})).Return(view, nil)

		w := doJSON(newPartyRouter(directory, tc), http.MethodPost, "/parties", map[string]any{
			"is_client": true,
			"name":      "Acme",
			"tax_id":    "PT 501-234-567",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decode(t, w)
		assert.True(t, resp.Success)
		directory.AssertExpectations(t)
	})

	t.Run("binding errors answer 400 with details", func(t *testing.T) {
		directory := new(MockPartyDirectory)

		w := doJSON(newPartyRouter(directory, tc), http.MethodPost, "/parties", map[string]any{
			"is_client": true,
			"email":     "not-an-email",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"name", "tax_id", "email"}, fields)
		assert.NotEmpty(t, resp.Error.RequestID)
		directory.AssertNotCalled(t, "Create")
	})

	t.Run("domain validation answers 422", func(t *testing.T) {
		directory := new(MockPartyDirectory)
		directory.On("Create", anyCtx, tc, mock.Anything).Return(nil, partner.ErrPartyRoleRequired)

		w := doJSON(newPartyRouter(directory, tc), http.MethodPost, "/parties", map[string]any{
			"name":   "Acme",
			"tax_id": "501234567",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decode(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "PARTY_ROLE_REQUIRED", resp.Error.Code)
	})

	t.Run("duplicate tax id answers 422", func(t *testing.T) {
		directory := new(MockPartyDirectory)
		directory.On("Create", anyCtx, tc, mock.Anything).Return(nil, partner.ErrDuplicateTaxID)

		w := doJSON(newPartyRouter(directory, tc), http.MethodPost, "/parties", map[string]any{
			"is_supplier": true,
			"name":        "Acme",
			"tax_id":      "501234567",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "DUPLICATE_TAX_ID", decode(t, w).Error.Code)
	})
}

func TestPartyHandler_GetByID(t *testing.T) {
	tc := shared.ForTenant(uuid.New())

	t.Run("found", func(t *testing.T) {
		directory := new(MockPartyDirectory)
		id := uuid.New()
		directory.On("Get", anyCtx, tc, id).Return(&partner.PartyView{ID: id, Name: "Acme"}, nil)

		w := doJSON(newPartyRouter(directory, tc), http.MethodGet, "/parties/"+id.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), id.String())
	})

	t.Run("malformed id", func(t *testing.T) {
		directory := new(MockPartyDirectory)

		w := doJSON(newPartyRouter(directory, tc), http.MethodGet, "/parties/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
		assert.Equal(t, "Invalid id format", resp.Error.Message)
		directory.AssertNotCalled(t, "Get")
	})

	t.Run("not found", func(t *testing.T) {
		directory := new(MockPartyDirectory)
		id := uuid.New()
		directory.On("Get", anyCtx, tc, id).Return(nil, partner.ErrPartyNotFound)

		w := doJSON(newPartyRouter(directory, tc), http.MethodGet, "/parties/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "PARTY_NOT_FOUND", decode(t, w).Error.Code)
	})

	t.Run("unexpected errors stay generic", func(t *testing.T) {
		directory := new(MockPartyDirectory)
		id := uuid.New()
		directory.On("Get", anyCtx, tc, id).Return(nil, errors.New("pq: connection reset"))

		w := doJSON(newPartyRouter(directory, tc), http.MethodGet, "/parties/"+id.String(), nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
		assert.Equal(t, dto.ErrCodeInternal, decode(t, w).Error.Code)
	})
}

func TestPartyHandler_List(t *testing.T) {
	tc := shared.ForTenant(uuid.New())

	t.Run("page meta", func(t *testing.T) {
		directory := new(MockPartyDirectory)
		page := &shared.Paginated[partner.PartyView]{
			Items:    []partner.PartyView{{ID: uuid.New(), Name: "Acme"}, {ID: uuid.New(), Name: "Beta"}},
			Total:    42,
			Page:     2,
			PageSize: 20,
		}
		directory.On("List", anyCtx, tc, mock.MatchedBy(func(req partnerapp.ListPartiesRequest) bool {
			return req.Role == "client" && req.Page == 2 && req.PageSize == 20
		})).Return(page, nil)

		w := doJSON(newPartyRouter(directory, tc), http.MethodGet, "/parties?role=client&page=2&page_size=20", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(42), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.Page)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})

	t.Run("invalid query", func(t *testing.T) {
		directory := new(MockPartyDirectory)

		w := doJSON(newPartyRouter(directory, tc), http.MethodGet, "/parties?role=employee", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		directory.AssertNotCalled(t, "List")
	})
}

func TestPartyHandler_UpdateAndDelete(t *testing.T) {
	tc := shared.ForTenant(uuid.New())
	id := uuid.New()

	directory := new(MockPartyDirectory)
	directory.On("Update", anyCtx, tc, id, mock.MatchedBy(func(req partnerapp.UpdatePartyRequest) bool {
		return req.Name != nil && *req.Name == "Acme Lda" && req.TaxID == nil
	})).Return(&partner.PartyView{ID: id, Name: "Acme Lda"}, nil)
	directory.On("Delete", anyCtx, tc, id).Return(nil)
	router := newPartyRouter(directory, tc)

	w := doJSON(router, http.MethodPatch, "/parties/"+id.String(), map[string]any{"name": "Acme Lda"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete, "/parties/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	directory.AssertExpectations(t)
}

func TestPartyHandler_GetByTaxID(t *testing.T) {
	tc := shared.NoTenant()
	directory := new(MockPartyDirectory)
	directory.On("FindByNormalizedTaxID", anyCtx, tc, "501234567").
		Return(&partner.PartyView{ID: uuid.New(), Name: "Acme"}, nil)
	directory.On("FindByNormalizedTaxID", anyCtx, tc, "999").
		Return(nil, partner.ErrPartyNotFound)
	router := newPartyRouter(directory, tc)

	w := doJSON(router, http.MethodGet, "/parties/by-tax-id/501234567", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/parties/by-tax-id/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
