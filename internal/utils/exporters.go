package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
)

// DataInput abstrai a fonte dos dados de exportação.
type DataInput interface {
	Headers() []string
	Rows() [][]string
	SheetName() string
}

// SliceDataInput é um DataInput sobre um [][]string cuja primeira linha é o cabeçalho.
type SliceDataInput struct {
	data  [][]string
	sheet string
}

// NewSliceDataInput cria um DataInput a partir de cabeçalho + linhas.
func NewSliceDataInput(data [][]string, sheetName string) (*SliceDataInput, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: nenhum dado fornecido para exportação", appErrors.ErrInvalidInput)
	}
	if sheetName == "" {
		sheetName = "Dados"
	}
	return &SliceDataInput{data: data, sheet: sheetName}, nil
}

func (s *SliceDataInput) Headers() []string { return s.data[0] }
func (s *SliceDataInput) Rows() [][]string  { return s.data[1:] }
func (s *SliceDataInput) SheetName() string { return s.sheet }

// ExportOptions contém opções para a exportação.
type ExportOptions struct {
	CreateBackup bool
	// SanitizeColumns lista as colunas cujos documentos e e-mails serão ofuscados.
	SanitizeColumns []string
}

var (
	cpfRegex   = regexp.MustCompile(`\b(\d{3}[.-]?\d{3}[.-]?\d{3}-?\d{2})\b`)
	cnpjRegex  = regexp.MustCompile(`\b(\d{2}[.-]?\d{3}[.-]?\d{3}/?\d{4}-?\d{2})\b`)
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

func sanitizeString(s string) string {
	s = cnpjRegex.ReplaceAllString(s, "**.***.***/****-**")
	s = cpfRegex.ReplaceAllString(s, "***.***.***-**")
	return emailRegex.ReplaceAllString(s, "****@****.***")
}

func sanitizeRows(headers []string, rows [][]string, columns []string) [][]string {
	if len(columns) == 0 {
		return rows
	}
	targets := make(map[int]bool)
	for _, col := range columns {
		for i, h := range headers {
			if strings.EqualFold(h, col) {
				targets[i] = true
			}
		}
	}
	if len(targets) == 0 {
		return rows
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		newRow := make([]string, len(row))
		for j, cell := range row {
			if targets[j] {
				cell = sanitizeString(cell)
			}
			newRow[j] = cell
		}
		out[i] = newRow
	}
	return out
}

// ExportToCSV grava os dados em CSV separado por ';' e devolve o caminho final.
func ExportToCSV(input DataInput, outputPath, exportDir string, opts *ExportOptions) (string, error) {
	if opts == nil {
		opts = &ExportOptions{}
	}
	finalPath, err := prepareOutput(outputPath, exportDir, ".csv", opts.CreateBackup)
	if err != nil {
		return "", err
	}

	file, err := os.Create(finalPath)
	if err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar arquivo CSV '%s': %v", finalPath, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = ';'

	headers := input.Headers()
	if err := writer.Write(headers); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever cabeçalhos CSV: %v", err)
	}
	if err := writer.WriteAll(sanitizeRows(headers, input.Rows(), opts.SanitizeColumns)); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever linhas CSV: %v", err)
	}

	appLogger.Infof("Dados exportados para CSV: %s", finalPath)
	return finalPath, nil
}

// ExportToXLSX grava cada DataInput em uma aba do arquivo XLSX.
// Os valores são gravados como texto: documentos não podem perder zeros à esquerda.
func ExportToXLSX(inputs []DataInput, outputPath, exportDir string, opts *ExportOptions) (string, error) {
	if opts == nil {
		opts = &ExportOptions{}
	}
	if len(inputs) == 0 {
		return "", fmt.Errorf("%w: nenhuma planilha para exportar", appErrors.ErrInvalidInput)
	}
	finalPath, err := prepareOutput(outputPath, exportDir, ".xlsx", opts.CreateBackup)
	if err != nil {
		return "", err
	}

	xlsx := excelize.NewFile()
	defer func() {
		if err := xlsx.Close(); err != nil {
			appLogger.Errorf("Erro ao fechar arquivo XLSX: %v", err)
		}
	}()

	headerStyle, err := xlsx.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1A659E"}, Pattern: 1},
		Font:      &excelize.Font{Color: "FFFFFF", Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar estilo do cabeçalho: %v", err)
	}

	defaultSheet := xlsx.GetSheetName(0)
	for i, input := range inputs {
		sheet := input.SheetName()
		if sheet == "" {
			sheet = fmt.Sprintf("Planilha%d", i+1)
		}
		if i == 0 {
			if err := xlsx.SetSheetName(defaultSheet, sheet); err != nil {
				return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao renomear planilha: %v", err)
			}
		} else if _, err := xlsx.NewSheet(sheet); err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar planilha '%s': %v", sheet, err)
		}

		headers := input.Headers()
		for col, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := xlsx.SetCellStr(sheet, cell, h); err != nil {
				return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever cabeçalho: %v", err)
			}
		}
		lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = xlsx.SetCellStyle(sheet, "A1", lastHeader, headerStyle)

		for r, row := range sanitizeRows(headers, input.Rows(), opts.SanitizeColumns) {
			for col, value := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				if err := xlsx.SetCellStr(sheet, cell, value); err != nil {
					return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever célula %s: %v", cell, err)
				}
			}
		}

		lastCol, _ := excelize.ColumnNumberToName(len(headers))
		_ = xlsx.SetColWidth(sheet, "A", lastCol, 22)
	}
	xlsx.SetActiveSheet(0)

	if err := xlsx.SaveAs(finalPath); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao salvar arquivo XLSX '%s': %v", finalPath, err)
	}
	appLogger.Infof("Dados exportados para XLSX: %s", finalPath)
	return finalPath, nil
}

// prepareOutput resolve o caminho final (relativo ao diretório de exportação),
// garante o diretório e, se pedido, move o arquivo existente para um backup.
func prepareOutput(path, defaultDir, ext string, backup bool) (string, error) {
	p := filepath.Clean(path)
	if !filepath.IsAbs(p) {
		absDir, err := filepath.Abs(defaultDir)
		if err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "diretório de exportação inválido '%s': %v", defaultDir, err)
		}
		p = filepath.Join(absDir, p)
	}
	if filepath.Ext(p) == "" {
		p += ext
	}
	if err := os.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "não foi possível criar diretório '%s': %v", filepath.Dir(p), err)
	}
	if backup {
		if _, err := os.Stat(p); err == nil {
			if err := createBackup(p); err != nil {
				return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar backup: %v", err)
			}
		}
	}
	return p, nil
}

func createBackup(path string) error {
	ext := filepath.Ext(path)
	backupPath := fmt.Sprintf("%s_backup_%s%s", strings.TrimSuffix(path, ext), time.Now().Format("20060102_150405"), ext)
	if err := os.Rename(path, backupPath); err != nil {
		return err
	}
	appLogger.Infof("Backup criado: %s", backupPath)
	return nil
}
