package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Codificaciones aceptadas por la importación de catálogos.
const (
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
)

// ImportOptions opciones de ImportCSV.
type ImportOptions struct {
	Encoding     string // utf-8 (por defecto) o shift_jis
	SkipExisting bool   // omite filas cuyo nombre ya existe en el catálogo
	DryRun       bool   // valida sin escribir
}

// ImportRowError fila rechazada. Row cuenta desde 1 incluyendo el encabezado.
type ImportRowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

// ImportResult resumen de la importación.
type ImportResult struct {
	Created int              `json:"created"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors"`
}

// ImportUseCase carga un catálogo de materiales desde CSV (exportado de hojas de
// cálculo, normalmente en Shift_JIS).
type ImportUseCase struct {
	materials *MaterialUseCase
	repo      repository.MaterialRepository
}

// NewImportUseCase construye el caso de uso.
func NewImportUseCase(materials *MaterialUseCase, repo repository.MaterialRepository) *ImportUseCase {
	return &ImportUseCase{materials: materials, repo: repo}
}

var columnAliases = map[string]string{
	"name": "name", "品名": "name", "名称": "name",
	"category": "category", "分類": "category", "カテゴリ": "category",
	"unit": "unit", "単位": "unit",
	"initial_quantity": "initial_quantity", "在庫数": "initial_quantity", "数量": "initial_quantity",
	"min_quantity": "min_quantity", "最低数": "min_quantity", "最小在庫": "min_quantity",
	"description": "description", "備考": "description", "説明": "description",
}

// normalize aplica NFKC (dígitos y letras de ancho completo a ancho normal) y recorta.
func normalize(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

func decoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingUTF8, "utf8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case EncodingShiftJIS, "sjis", "cp932":
		return transform.NewReader(r, japanese.ShiftJIS.NewDecoder()), nil
	}
	return nil, domain.NewValidationError("encoding", "no soportada: "+encoding)
}

// ImportCSV crea un material por fila. Las filas inválidas se reportan y no
// detienen la importación; un error de lectura o de persistencia sí.
func (uc *ImportUseCase) ImportCSV(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	src, err := decoder(r, opts.Encoding)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.NewValidationError("csv", "archivo vacío")
		}
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if c, ok := columnAliases[strings.ToLower(normalize(h))]; ok {
			cols[c] = i
		}
	}
	for _, required := range []string{"name", "category", "unit"} {
		if _, ok := cols[required]; !ok {
			return nil, domain.NewValidationError("csv", "falta la columna "+required)
		}
	}

	existing := make(map[string]bool)
	if opts.SkipExisting {
		list, err := uc.repo.List(ctx, repository.MaterialFilter{})
		if err != nil {
			return nil, domain.WrapPersistence("list materials", err)
		}
		for _, m := range list {
			existing[normalize(m.Name)] = true
		}
	}

	res := &ImportResult{Errors: make([]ImportRowError, 0)}
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return res, fmt.Errorf("leer fila %d: %w", row, err)
		}
		req, err := rowToRequest(record, cols)
		if err != nil {
			res.Errors = append(res.Errors, ImportRowError{Row: row, Err: err.Error()})
			continue
		}
		if existing[req.Name] {
			res.Skipped++
			continue
		}
		if opts.DryRun {
			if err := dto.Validate(req); err != nil {
				res.Errors = append(res.Errors, ImportRowError{Row: row, Err: err.Error()})
				continue
			}
		} else if _, err := uc.materials.Create(ctx, req); err != nil {
			if errors.Is(err, domain.ErrValidation) {
				res.Errors = append(res.Errors, ImportRowError{Row: row, Err: err.Error()})
				continue
			}
			return res, err
		}
		// dry-run cuenta igual que una carga real: los repetidos del propio CSV se omiten
		if opts.SkipExisting {
			existing[req.Name] = true
		}
		res.Created++
	}
	return res, nil
}

func rowToRequest(record []string, cols map[string]int) (dto.CreateMaterialRequest, error) {
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(record) {
			return ""
		}
		return normalize(record[i])
	}
	req := dto.CreateMaterialRequest{
		Name:        get("name"),
		Category:    get("category"),
		Unit:        get("unit"),
		Description: get("description"),
	}
	var err error
	if req.InitialQuantity, err = parseQuantity(get("initial_quantity")); err != nil {
		return req, domain.NewValidationError("initial_quantity", err.Error())
	}
	if req.MinQuantity, err = parseQuantity(get("min_quantity")); err != nil {
		return req, domain.NewValidationError("min_quantity", err.Error())
	}
	return req, nil
}

func parseQuantity(s string) (int64, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("no es un entero: %q", s)
	}
	return n, nil
}
