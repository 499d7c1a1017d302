package http

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/stockmanager/core/internal/domain/entities"
	"github.com/stockmanager/core/internal/infrastructure/logger"
	"github.com/stockmanager/core/internal/ports"
)

//go:embed templates/*.html
var templateFiles embed.FS

const (
	msgNegativeInput = "Gagal! Stok atau Harga tidak boleh bernilai negatif."
	msgMissingName   = "Gagal! Nama barang wajib diisi."
	msgNotANumber    = "Gagal! Stok dan Harga harus berupa angka bulat."
	msgNameTooLong   = "Gagal! Nama barang maksimal 255 karakter."
)

// TemplateRenderer adapts html/template to echo.Renderer
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses the embedded page templates
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"rupiah": formatRupiah,
	}).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &TemplateRenderer{templates: tmpl}, nil
}

// Render implements echo.Renderer
func (r *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// itemForm keeps the raw form values so rejected input can be shown again
type itemForm struct {
	ID    string
	Name  string
	Stock string
	Price string
}

type indexPage struct {
	Items     []entities.Item
	Summary   entities.Summary
	Query     string
	Searching bool
	EditMode  bool
	Form      itemForm
	Error     string
}

// ViewHandler serves the server-rendered inventory page
type ViewHandler struct {
	itemService ports.ItemService
	logger      *logger.Logger
}

// NewViewHandler creates a new view handler
func NewViewHandler(itemService ports.ItemService, logger *logger.Logger) *ViewHandler {
	return &ViewHandler{
		itemService: itemService,
		logger:      logger,
	}
}

// Register mounts the page routes on e
func (h *ViewHandler) Register(e *echo.Echo) {
	e.GET("/", h.Index)
	e.POST("/", h.Submit)
}

// Index renders the list and the item form. op=delete removes an item and
// redirects; op=edit prefills the form with an existing item.
func (h *ViewHandler) Index(c echo.Context) error {
	ctx := c.Request().Context()
	page := indexPage{}

	op := c.QueryParam("op")
	rawID := c.QueryParam("id")
	if op != "" && rawID != "" {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid item ID")
		}

		switch op {
		case "delete":
			if err := h.itemService.DeleteItem(ctx, id); err != nil {
				h.logger.Errorw("Delete item failed", "error", err.Error(), "item_id", id)
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete item").SetInternal(err)
			}
			return c.Redirect(http.StatusSeeOther, "/")
		case "edit":
			if item, err := h.itemService.GetItem(ctx, id); err == nil {
				page.EditMode = true
				page.Form = formFromItem(*item)
			}
		}
	}

	return h.render(c, http.StatusOK, page)
}

// Submit creates an item, or updates one when the form carries an id, then
// redirects back to the list. Rejected input is rendered again with an error.
func (h *ViewHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	form := itemForm{
		ID:    strings.TrimSpace(c.FormValue("id")),
		Name:  c.FormValue("nama"),
		Stock: strings.TrimSpace(c.FormValue("stok")),
		Price: strings.TrimSpace(c.FormValue("harga")),
	}

	page := indexPage{EditMode: form.ID != "", Form: form}

	var id int64
	if form.ID != "" {
		parsed, err := strconv.ParseInt(form.ID, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid item ID")
		}
		id = parsed
	}

	stock, errStock := strconv.Atoi(form.Stock)
	price, errPrice := strconv.Atoi(form.Price)
	if errStock != nil || errPrice != nil {
		page.Error = msgNotANumber
		return h.render(c, http.StatusUnprocessableEntity, page)
	}

	var err error
	if form.ID == "" {
		_, err = h.itemService.CreateItem(ctx, ports.CreateItemRequest{Name: form.Name, Stock: stock, Price: price})
	} else {
		_, err = h.itemService.UpdateItem(ctx, id, ports.UpdateItemRequest{Name: form.Name, Stock: stock, Price: price})
	}

	switch {
	case err == nil:
	case errors.Is(err, entities.ErrValidation):
		switch {
		case strings.TrimSpace(form.Name) == "":
			page.Error = msgMissingName
		case utf8.RuneCountInString(strings.TrimSpace(form.Name)) > entities.MaxNameLength:
			page.Error = msgNameTooLong
		default:
			page.Error = msgNegativeInput
		}
		return h.render(c, http.StatusUnprocessableEntity, page)
	case errors.Is(err, entities.ErrItemNotFound):
		h.logger.Warnw("Submitted item no longer exists", "item_id", id)
	default:
		h.logger.Errorw("Save item failed", "error", err.Error(), "item_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save item").SetInternal(err)
	}

	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *ViewHandler) render(c echo.Context, code int, page indexPage) error {
	ctx := c.Request().Context()

	page.Searching = c.QueryParams().Has("q")
	page.Query = c.QueryParam("q")
	page.Items = h.itemService.ListItems(ctx, page.Query)
	page.Summary = entities.Summarize(page.Items)

	return c.Render(code, "index.html", page)
}

func formFromItem(item entities.Item) itemForm {
	return itemForm{
		ID:    strconv.FormatInt(item.ID, 10),
		Name:  item.Name,
		Stock: strconv.Itoa(item.Stock),
		Price: strconv.Itoa(item.Price),
	}
}

// formatRupiah groups thousands with dots, e.g. 150000 -> 150.000
func formatRupiah(v interface{}) string {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	default:
		return fmt.Sprint(v)
	}

	sign := ""
	u := uint64(n)
	if n < 0 {
		sign = "-"
		u = uint64(-(n + 1)) + 1
	}

	digits := strconv.FormatUint(u, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + b.String()
}
