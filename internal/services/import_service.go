package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ceidigital/cei_console_go/internal/auth"
	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/repositories"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

// RowStatus é o resultado de uma linha importada.
type RowStatus string

const (
	RowCreated    RowStatus = "CRIADA"
	RowInvalid    RowStatus = "INVALIDA"
	RowDuplicated RowStatus = "DUPLICADA"
	RowFailed     RowStatus = "FALHA"
)

// Colunas do arquivo de importação. As três primeiras são obrigatórias.
const (
	ColTipo         = "TIPO"
	ColDocumento    = "DOCUMENTO"
	ColRazaoSocial  = "RAZAO_SOCIAL"
	ColNomeFantasia = "NOME_FANTASIA"
	ColEmail        = "EMAIL"
)

var (
	ImportColumns   = []string{ColTipo, ColDocumento, ColRazaoSocial, ColNomeFantasia, ColEmail}
	requiredColumns = []string{ColTipo, ColDocumento, ColRazaoSocial}
)

// ImportRowResult descreve o que aconteceu com uma linha do arquivo.
// Line conta a partir de 1, incluindo o cabeçalho.
type ImportRowResult struct {
	Line      int
	Documento string
	Status    RowStatus
	Message   string
	EmpresaID int64
}

// ImportSummary é o resultado de ImportEmpresas.
type ImportSummary struct {
	File       string
	Encoding   string
	Rows       []ImportRowResult
	Created    int
	Invalid    int
	Duplicated int
	Failed     int
}

func (s *ImportSummary) add(r ImportRowResult) {
	s.Rows = append(s.Rows, r)
	switch r.Status {
	case RowCreated:
		s.Created++
	case RowInvalid:
		s.Invalid++
	case RowDuplicated:
		s.Duplicated++
	default:
		s.Failed++
	}
}

// ReportData devolve o relatório linha a linha no formato aceito pelos exportadores.
func (s *ImportSummary) ReportData() [][]string {
	data := [][]string{{"LINHA", "DOCUMENTO", "STATUS", "MENSAGEM", "EMPRESA_ID"}}
	for _, r := range s.Rows {
		id := ""
		if r.EmpresaID > 0 {
			id = fmt.Sprintf("%d", r.EmpresaID)
		}
		data = append(data, []string{fmt.Sprintf("%d", r.Line), r.Documento, string(r.Status), r.Message, id})
	}
	return data
}

// ImportService cadastra empresas a partir de arquivos CSV/TXT.
type ImportService interface {
	// ImportEmpresas lê o arquivo (UTF-8 ou ISO-8859-1, separado por ';' ou ',')
	// e tenta criar uma empresa por linha. Falhas de linha não interrompem a importação.
	ImportEmpresas(ctx context.Context, filePath string, userSession *auth.SessionData) (*ImportSummary, error)
	// ImportEmpresasFrom faz o mesmo a partir de um io.Reader; name aparece em logs e auditoria.
	ImportEmpresasFrom(ctx context.Context, r io.Reader, name string, userSession *auth.SessionData) (*ImportSummary, error)
}

type importServiceImpl struct {
	empresaRepo     repositories.EmpresaRepository
	auditLogService AuditLogService
	permManager     *auth.PermissionManager
}

// NewImportService cria uma nova instância de ImportService.
func NewImportService(
	empresaRepo repositories.EmpresaRepository,
	auditLog AuditLogService,
	pm *auth.PermissionManager,
) ImportService {
	if empresaRepo == nil || auditLog == nil || pm == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewImportService")
	}
	return &importServiceImpl{empresaRepo: empresaRepo, auditLogService: auditLog, permManager: pm}
}

// decodeContent remove o BOM UTF-8 e converte Latin-1 para UTF-8 quando o conteúdo
// não é UTF-8 válido. Devolve o texto e o encoding detectado.
func decodeContent(raw []byte) ([]byte, string, error) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(raw) {
		return raw, "UTF-8", nil
	}
	converted, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), raw)
	if err != nil {
		return nil, "", err
	}
	return converted, "ISO-8859-1", nil
}

// detectDelimiter escolhe entre ';' e ',' pelo cabeçalho.
func detectDelimiter(content []byte) rune {
	header := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		header = content[:i]
	}
	if bytes.Count(header, []byte{','}) > bytes.Count(header, []byte{';'}) {
		return ','
	}
	return ';'
}

// readRecords decodifica o conteúdo e devolve o índice das colunas e as linhas de dados.
func readRecords(raw []byte, name string) (map[string]int, [][]string, string, error) {
	content, encoding, err := decodeContent(raw)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: arquivo '%s' não pôde ser decodificado como UTF-8 ou Latin-1", appErrors.ErrDataImport, name)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = detectDelimiter(content)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, nil, encoding, fmt.Errorf("%w: arquivo '%s' mal formatado (linha %d): %v", appErrors.ErrDataImport, name, pe.Line, pe.Err)
		}
		return nil, nil, encoding, fmt.Errorf("%w: falha ao ler '%s': %v", appErrors.ErrDataImport, name, err)
	}
	if len(records) == 0 {
		return nil, nil, encoding, fmt.Errorf("%w: arquivo '%s' está vazio", appErrors.ErrDataImport, name)
	}

	columns := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		columns[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, encoding, fmt.Errorf("%w: cabeçalho de '%s' sem as colunas %s (esperado %s)",
			appErrors.ErrDataImport, name, strings.Join(missing, ", "), strings.Join(ImportColumns, ";"))
	}
	return columns, records[1:], encoding, nil
}

// cell devolve o valor da coluna sem caracteres de controle nem espaços repetidos.
func cell(record []string, columns map[string]int, col string) string {
	i, ok := columns[col]
	if !ok || i >= len(record) {
		return ""
	}
	return utils.SanitizeInput(record[i])
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (s *importServiceImpl) ImportEmpresas(ctx context.Context, filePath string, userSession *auth.SessionData) (*ImportSummary, error) {
	if err := s.permManager.CheckPermission(userSession, auth.PermImportExecute); err != nil {
		return nil, err
	}
	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: arquivo '%s' não encontrado", appErrors.ErrNotFound, filepath.Base(filePath))
		}
		return nil, appErrors.WrapErrorf(appErrors.ErrResourceLoading, "falha ao abrir '%s': %v", filepath.Base(filePath), err)
	}
	defer f.Close()
	return s.ImportEmpresasFrom(ctx, f, filepath.Base(filePath), userSession)
}

func (s *importServiceImpl) ImportEmpresasFrom(ctx context.Context, r io.Reader, name string, userSession *auth.SessionData) (*ImportSummary, error) {
	if err := s.permManager.CheckPermission(userSession, auth.PermImportExecute); err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, appErrors.WrapErrorf(appErrors.ErrResourceLoading, "falha ao ler '%s': %v", name, err)
	}

	columns, records, encoding, err := readRecords(raw, name)
	if err != nil {
		appLogger.Errorf("Importação de '%s' recusada: %v", name, err)
		return nil, err
	}
	logCtx := appLogger.WithFields(logrus.Fields{"arquivo": name, "encoding": encoding, "usuario": userSession.Email})
	logCtx.Infof("Iniciando importação de %d linhas", len(records))

	summary := &ImportSummary{File: name, Encoding: encoding}
	seen := make(map[string]int)
	for i, record := range records {
		line := i + 2
		if blankRecord(record) {
			continue
		}
		summary.add(s.importRow(ctx, line, record, columns, seen))
	}

	logCtx.WithFields(logrus.Fields{
		"criadas": summary.Created, "invalidas": summary.Invalid,
		"duplicadas": summary.Duplicated, "falhas": summary.Failed,
	}).Info("Importação concluída")

	severity := "INFO"
	if summary.Failed > 0 {
		severity = "WARNING"
	}
	if err := s.auditLogService.LogAction(models.AuditLogEntry{
		Action: "EMPRESA_IMPORT",
		Description: fmt.Sprintf("Arquivo '%s' importado: %d criadas, %d inválidas, %d duplicadas, %d com falha.",
			name, summary.Created, summary.Invalid, summary.Duplicated, summary.Failed),
		Severity: severity,
		Metadata: models.JSONMetadata{
			"arquivo": name, "encoding": encoding, "criadas": summary.Created, "invalidas": summary.Invalid,
			"duplicadas": summary.Duplicated, "falhas": summary.Failed,
		},
	}, userSession); err != nil {
		appLogger.Warnf("Falha ao registrar log de auditoria (EMPRESA_IMPORT): %v", err)
	}
	return summary, nil
}

func (s *importServiceImpl) importRow(ctx context.Context, line int, record []string, columns map[string]int, seen map[string]int) ImportRowResult {
	payload := models.EmpresaPayload{
		TipoPessoa:      cell(record, columns, ColTipo),
		NumeroDocumento: cell(record, columns, ColDocumento),
		NomeRazaoSocial: cell(record, columns, ColRazaoSocial),
		NomeFantasia:    cell(record, columns, ColNomeFantasia),
		Email:           cell(record, columns, ColEmail),
	}
	result := ImportRowResult{Line: line, Documento: payload.NumeroDocumento}

	if err := ValidateEmpresaPayload(&payload); err != nil {
		result.Status = RowInvalid
		var ve *appErrors.ValidationError
		if errors.As(err, &ve) {
			result.Message = joinFieldErrors(ve.Fields)
		} else {
			result.Message = err.Error()
		}
		return result
	}
	result.Documento = utils.FormatDocumentoExibicao(types.ParseTipoPessoa(payload.TipoPessoa), payload.NumeroDocumento)

	key := payload.TipoPessoa + ":" + payload.NumeroDocumento
	if first, dup := seen[key]; dup {
		result.Status = RowDuplicated
		result.Message = fmt.Sprintf("Documento repetido no arquivo (linha %d).", first)
		return result
	}
	seen[key] = line

	created, err := s.empresaRepo.Create(ctx, payload)
	switch {
	case err == nil:
		result.Status = RowCreated
		result.EmpresaID = created.ID
	case errors.Is(err, appErrors.ErrConflict):
		result.Status = RowDuplicated
		result.Message = "Documento já cadastrado."
	case errors.Is(err, appErrors.ErrValidation):
		result.Status = RowInvalid
		result.Message = apiMessage(err)
	default:
		result.Status = RowFailed
		result.Message = apiMessage(err)
		appLogger.Warnf("Linha %d: falha ao criar empresa %s: %v", line, result.Documento, err)
	}
	return result
}

func joinFieldErrors(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, k := range sortedFieldNames(fields) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func sortedFieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// apiMessage prefere o detail da API ao texto completo do erro.
func apiMessage(err error) string {
	if apiErr, ok := appErrors.AsAPIError(err); ok {
		if apiErr.Status == 0 {
			return appErrors.ErrNetwork.Error()
		}
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if apiErr.Title != "" {
			return apiErr.Title
		}
	}
	return err.Error()
}
