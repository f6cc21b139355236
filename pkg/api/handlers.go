package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JayJamieson/tabload/pkg/db"
	"github.com/JayJamieson/tabload/pkg/importer"
	"github.com/JayJamieson/tabload/pkg/models"
	"github.com/JayJamieson/tabload/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime/types"
)

var _ ServerInterface = (*Server)(nil)

const defaultPageSize = 500

// ListImports implements ServerInterface.
func (h *Server) ListImports(ctx echo.Context) error {
	imports, err := h.db.ListImports(ctx.Request().Context())
	if err != nil {
		return createErrorResponse(ctx, http.StatusInternalServerError, "Query error", err.Error())
	}

	return ctx.JSON(http.StatusOK, models.ListResponse{OK: true, Imports: imports})
}

// CreateImport implements ServerInterface.
func (h *Server) CreateImport(ctx echo.Context, params CreateImportParams) error {
	reqCtx := ctx.Request().Context()

	format, err := importer.ParseFormat(params.Format)
	if err != nil {
		return createErrorResponse(ctx, http.StatusBadRequest, "Invalid parameter", err.Error())
	}

	delim, err := parseDelimiter(params.Delimiter)
	if err != nil {
		return createErrorResponse(ctx, http.StatusBadRequest, "Invalid parameter", err.Error())
	}

	columnTypes, err := parseColumnTypes(params.ColumnType)
	if err != nil {
		return createErrorResponse(ctx, http.StatusBadRequest, "Invalid parameter", err.Error())
	}

	var reader io.Reader
	var filename string

	if params.Url != "" {
		body, err := utils.DownloadFile(reqCtx, params.Url)
		if err != nil {
			return createErrorResponse(ctx, http.StatusBadRequest, "URL fetch error", err.Error())
		}
		defer body.Close()

		reader = body

		filename, err = utils.FilenameFromURL(params.Url, "downloaded."+string(format))
		if err != nil {
			return createErrorResponse(ctx, http.StatusBadRequest, "Invalid URL", err.Error())
		}
	} else if params.Name != "" {
		reader = ctx.Request().Body
		filename = params.Name
	} else {
		return createErrorResponse(ctx, http.StatusBadRequest, "Missing import parameters",
			"Either 'url' or 'name' parameter must be provided")
	}

	imp, res, err := h.db.Import(reqCtx, db.ImportRequest{
		Filename:    filename,
		Format:      format,
		TableName:   params.Table,
		Delimiter:   delim,
		ColumnTypes: columnTypes,
		SkipBadRows: params.SkipBadRows,
	}, reader)
	if err != nil {
		return createErrorResponse(ctx, importStatus(err), "Import error", err.Error())
	}

	resp := models.ImportResponse{
		OK:       true,
		ID:       imp.ID,
		Endpoint: fmt.Sprintf("%s://%s/api/imports/%s/rows", ctx.Scheme(), ctx.Request().Host, imp.ID),
		Inserted: res.Inserted,
	}
	for _, s := range res.Skipped {
		resp.Skipped = append(resp.Skipped, models.SkippedLine{Line: s.Line, Error: s.Error()})
	}

	return ctx.JSON(http.StatusOK, resp)
}

// GetImport implements ServerInterface.
func (h *Server) GetImport(ctx echo.Context, id types.UUID) error {
	imp, err := h.db.GetImport(ctx.Request().Context(), id.String())
	if err != nil {
		return createErrorResponse(ctx, lookupStatus(err), "Resource not found", err.Error())
	}

	return ctx.JSON(http.StatusOK, imp)
}

// FetchRows implements ServerInterface.
func (h *Server) FetchRows(ctx echo.Context, id types.UUID, params FetchRowsParams) error {
	reqCtx := ctx.Request().Context()

	// _sort_desc wins over _sort when both are given
	sortCol, sortDesc := params.Sort, false
	if params.SortDesc != "" {
		sortCol, sortDesc = params.SortDesc, true
	}

	limit := defaultPageSize
	if params.Size > 0 {
		limit = params.Size
	}

	shape := params.Shape
	if shape == "" {
		shape = "objects"
	}

	res, err := h.db.QueryImport(reqCtx, db.Query{
		ID:         id.String(),
		Limit:      limit,
		Offset:     params.Offset,
		SortColumn: sortCol,
		SortDesc:   sortDesc,
		ShowRowID:  params.Rowid,
		Shape:      shape,
	})
	if err != nil {
		return createErrorResponse(ctx, lookupStatus(err), "Query error", err.Error())
	}

	base := models.DataResponseBase{
		OK:      true,
		QueryMS: res.QueryMS,
		Columns: res.Columns,
		Total:   res.Total,
	}

	if shape == "array" {
		rows := make([][]any, len(res.Rows))
		for i, r := range res.Rows {
			rows[i] = r.([]any)
		}
		return ctx.JSON(http.StatusOK, models.DataResponseArray{DataResponseBase: base, Rows: rows})
	}

	rows := make([]map[string]any, len(res.Rows))
	for i, r := range res.Rows {
		rows[i] = r.(map[string]any)
	}
	return ctx.JSON(http.StatusOK, models.DataResponseObjects{DataResponseBase: base, Rows: rows})
}

// PersistImport implements ServerInterface.
func (h *Server) PersistImport(ctx echo.Context, id types.UUID) error {
	reqCtx := ctx.Request().Context()

	imp, err := h.db.GetImport(reqCtx, id.String())
	if err != nil {
		return createErrorResponse(ctx, lookupStatus(err), "Resource not found", err.Error())
	}

	if imp.Persisted {
		return ctx.JSON(http.StatusOK, models.PersistResponse{
			OK:        true,
			Message:   "Import already persisted",
			Persisted: true,
		})
	}

	if err := h.db.Persist(reqCtx, imp.ID); err != nil {
		return createErrorResponse(ctx, http.StatusInternalServerError, "Persistence error", err.Error())
	}

	return ctx.JSON(http.StatusOK, models.PersistResponse{
		OK:        true,
		Message:   fmt.Sprintf("Persisted as table %s", db.PersistedTableName(imp.ID)),
		Persisted: true,
	})
}

// parseDelimiter accepts a single character or the word "tab". Empty means
// the importer default.
func parseDelimiter(s string) (rune, error) {
	switch {
	case s == "":
		return 0, nil
	case s == "tab" || s == `\t`:
		return '\t', nil
	case utf8.RuneCountInString(s) == 1:
		r, _ := utf8.DecodeRuneInString(s)
		return r, nil
	default:
		return 0, fmt.Errorf("%w: %q", importer.ErrInvalidDelimiter, s)
	}
}

// parseColumnTypes turns "column:TYPE" pairs into an override map. The last
// colon separates the type so column names may contain colons.
func parseColumnTypes(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	overrides := make(map[string]string, len(pairs))
	for _, p := range pairs {
		i := strings.LastIndexByte(p, ':')
		if i <= 0 || i == len(p)-1 {
			return nil, fmt.Errorf("column_type %q is not of the form column:TYPE", p)
		}
		overrides[p[:i]] = strings.TrimSpace(p[i+1:])
	}
	return overrides, nil
}

func importStatus(err error) int {
	switch {
	case errors.Is(err, importer.ErrMissingHeader),
		errors.Is(err, importer.ErrMalformedHeader),
		errors.Is(err, importer.ErrFieldCount),
		errors.Is(err, importer.ErrUnknownFormat),
		errors.Is(err, importer.ErrInvalidDelimiter):
		return http.StatusBadRequest
	default:
		var rowErr *importer.RowError
		if errors.As(err, &rowErr) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

func lookupStatus(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrUnknownColumn):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func createErrorResponse(c echo.Context, status int, error string, message string) error {
	resp := models.ErrorResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error:     error,
		Message:   message,
	}
	return c.JSON(status, resp)
}
