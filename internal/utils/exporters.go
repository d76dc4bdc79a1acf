package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
)

// DataInput é uma interface para abstrair a fonte dos dados de exportação.
type DataInput interface {
	Headers() []string    // Cabeçalhos das colunas
	Rows() [][]string     // Linhas de dados (sem cabeçalho)
	GetSheetName() string // Nome da planilha
}

// SliceDataInput é uma implementação de DataInput para um `[][]string`.
// A primeira linha é o cabeçalho.
type SliceDataInput struct {
	data      [][]string
	sheetName string
}

// NewSliceDataInput cria um DataInput a partir de um slice de slices de string.
func NewSliceDataInput(data [][]string, sheetName string) (*SliceDataInput, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: nenhum dado fornecido para SliceDataInput", appErrors.ErrInvalidInput)
	}
	if sheetName == "" {
		sheetName = "Dados"
	}
	return &SliceDataInput{data: data, sheetName: sheetName}, nil
}

func (s *SliceDataInput) Headers() []string { return s.data[0] }

func (s *SliceDataInput) Rows() [][]string {
	if len(s.data) <= 1 {
		return [][]string{}
	}
	return s.data[1:]
}

func (s *SliceDataInput) GetSheetName() string { return s.sheetName }

// DriverColumns são as colunas da exportação de motoristas.
var DriverColumns = []string{
	"Nome", "Email", "CPF", "Telefone", "Data de Nascimento", "Status",
	"Rua", "Número", "Cidade", "Estado", "CEP", "CNH", "CRLV",
}

// NewDriversDataInput converte a listagem de motoristas em linhas de planilha.
func NewDriversDataInput(drivers []models.Driver, sheetName string) *SliceDataInput {
	if sheetName == "" {
		sheetName = "Motoristas"
	}
	data := make([][]string, 0, len(drivers)+1)
	data = append(data, DriverColumns)
	for _, d := range drivers {
		data = append(data, []string{
			d.Name,
			d.Email,
			MaskCPF(d.CPF),
			MaskPhone(d.Telephone),
			d.FormattedBirthDate(),
			string(d.Status),
			d.Address.Street,
			d.Address.Number,
			d.Address.City,
			d.Address.State,
			ApplyZipMask(d.Address.ZipCode),
			d.SrcCNH,
			d.SrcCRLV,
		})
	}
	return &SliceDataInput{data: data, sheetName: sheetName}
}

// --- Sanitização ---
var (
	cpfRegex   = regexp.MustCompile(`\b\d{3}[.-]?\d{3}[.-]?\d{3}-?\d{2}\b`)
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

func sanitizeString(s string) string {
	s = cpfRegex.ReplaceAllStringFunc(s, RedactCPF)
	s = emailRegex.ReplaceAllStringFunc(s, RedactEmail)
	return s
}

func sanitizeData(headers []string, rows [][]string, sanitizeColumns []string) [][]string {
	if len(sanitizeColumns) == 0 || len(rows) == 0 {
		return rows
	}

	colIndicesToSanitize := make(map[int]bool)
	for _, colName := range sanitizeColumns {
		found := false
		for i, h := range headers {
			if strings.EqualFold(h, colName) {
				colIndicesToSanitize[i] = true
				found = true
				break
			}
		}
		if !found {
			appLogger.Warnf("Coluna de sanitização '%s' não encontrada nos cabeçalhos. Ignorando.", colName)
		}
	}
	if len(colIndicesToSanitize) == 0 {
		return rows
	}

	sanitizedRows := make([][]string, len(rows))
	for i, row := range rows {
		newRow := make([]string, len(row))
		copy(newRow, row)
		for colIdx := range row {
			if colIndicesToSanitize[colIdx] {
				newRow[colIdx] = sanitizeString(row[colIdx])
			}
		}
		sanitizedRows[i] = newRow
	}
	return sanitizedRows
}

// ExportOptions contém opções para a exportação.
type ExportOptions struct {
	Sanitize        bool
	SanitizeColumns []string // Nomes das colunas a serem sanitizadas
	ColumnWidth     float64  // Largura padrão das colunas no XLSX (0 = padrão do Excel)
}

// ExportToCSV escreve os dados em CSV (delimitador ponto e vírgula) em `w`.
func ExportToCSV(w io.Writer, input DataInput, opts *ExportOptions) error {
	if opts == nil {
		opts = &ExportOptions{}
	}
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	headers := input.Headers()
	if err := writer.Write(headers); err != nil {
		return appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever cabeçalhos CSV: %v", err)
	}

	rows := input.Rows()
	if opts.Sanitize {
		rows = sanitizeData(headers, rows, opts.SanitizeColumns)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever linha CSV: %v", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return appErrors.WrapErrorf(appErrors.ErrExport, "falha ao dar flush no writer CSV: %v", err)
	}
	appLogger.Infof("Exportação CSV concluída: %d linhas", len(rows))
	return nil
}

// ExportToXLSX escreve uma planilha por DataInput em `w`.
// Todas as células são gravadas como texto: CPF, CEP e telefone têm zeros à esquerda.
func ExportToXLSX(w io.Writer, inputs []DataInput, opts *ExportOptions) error {
	if opts == nil {
		opts = &ExportOptions{}
	}

	xlsx := excelize.NewFile()
	defer func() {
		if err := xlsx.Close(); err != nil {
			appLogger.Errorf("Erro ao fechar arquivo XLSX: %v", err)
		}
	}()

	headerStyle, err := xlsx.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1A659E"}, Pattern: 1},
		Font:      &excelize.Font{Color: "FFFFFF", Bold: true, Size: 11, Family: "Segoe UI"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border: []excelize.Border{
			{Type: "bottom", Color: "FFFFFF", Style: 1},
		},
	})
	if err != nil {
		return appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar estilo do cabeçalho: %v", err)
	}

	if len(inputs) == 0 {
		if err := xlsx.SetCellStr("Sheet1", "A1", "Nenhum dado para exportar."); err != nil {
			return appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever planilha vazia: %v", err)
		}
	}

	for i, input := range inputs {
		sheetName := input.GetSheetName()
		if sheetName == "" {
			sheetName = fmt.Sprintf("Planilha%d", i+1)
		}
		// Excelize cria "Sheet1" por padrão: a primeira entrada a reaproveita.
		if i == 0 {
			if err := xlsx.SetSheetName("Sheet1", sheetName); err != nil {
				return appErrors.WrapErrorf(appErrors.ErrExport, "falha ao renomear planilha: %v", err)
			}
		} else if _, err := xlsx.NewSheet(sheetName); err != nil {
			return appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar planilha '%s': %v", sheetName, err)
		}

		headers := input.Headers()
		for colIdx, headerVal := range headers {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
			if err := xlsx.SetCellStr(sheetName, cell, headerVal); err != nil {
				return appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever cabeçalho: %v", err)
			}
			_ = xlsx.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		rows := input.Rows()
		if opts.Sanitize {
			rows = sanitizeData(headers, rows, opts.SanitizeColumns)
		}
		for rowIdx, rowData := range rows {
			for colIdx, cellData := range rowData {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2) // cabeçalho na linha 1
				if err := xlsx.SetCellStr(sheetName, cell, cellData); err != nil {
					return appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever célula %s: %v", cell, err)
				}
			}
		}

		if opts.ColumnWidth > 0 && len(headers) > 0 {
			last, _ := excelize.ColumnNumberToName(len(headers))
			_ = xlsx.SetColWidth(sheetName, "A", last, opts.ColumnWidth)
		}
		appLogger.Debugf("Planilha '%s' exportada com %d linhas", sheetName, len(rows))
	}

	if _, err := xlsx.WriteTo(w); err != nil {
		return appErrors.WrapErrorf(appErrors.ErrExport, "falha ao gravar XLSX: %v", err)
	}
	return nil
}
