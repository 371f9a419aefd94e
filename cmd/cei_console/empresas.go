package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/services"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

var empresasCommands = map[string]func(c *console, args []string) error{
	"list":   empresasList,
	"show":   empresasShow,
	"create": empresasCreate,
	"update": empresasUpdate,
	"delete": empresasDelete,
	"exists": empresasExists,
	"export": empresasExport,
	"import": empresasImport,
}

func cmdEmpresas(c *console, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: informe um subcomando (list, show, create, update, delete, exists, export, import)", appErrors.ErrInvalidInput)
	}
	sub, ok := empresasCommands[args[0]]
	if !ok {
		return fmt.Errorf("%w: subcomando desconhecido '%s'", appErrors.ErrInvalidInput, args[0])
	}
	return sub(c, args[1:])
}

func parseEmpresaID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: informe o ID da empresa", appErrors.ErrInvalidInput)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: ID inválido '%s'", appErrors.ErrInvalidInput, args[0])
	}
	return id, nil
}

// payloadFlags liga cada campo do payload a uma flag.
type payloadFlags struct {
	fs     *pflag.FlagSet
	values map[string]*string
}

var payloadFlagNames = []struct{ flag, usage string }{
	{"tipo", "tipo de pessoa: CPF ou CNPJ"},
	{"documento", "CPF ou CNPJ"},
	{"razao", "nome / razão social"},
	{"fantasia", "nome fantasia (padrão: razão social)"},
	{"atividade", "tipo de atividade"},
	{"cnae", "CNAE principal"},
	{"abertura", "data de abertura (AAAA-MM-DD)"},
	{"situacao", "situação cadastral"},
	{"endereco", "endereço"},
	{"cidade", "cidade"},
	{"uf", "UF (2 letras)"},
	{"telefone", "telefone com DDD"},
	{"email", "e-mail"},
}

func newPayloadFlags(fs *pflag.FlagSet) *payloadFlags {
	pf := &payloadFlags{fs: fs, values: make(map[string]*string)}
	for _, f := range payloadFlagNames {
		pf.values[f.flag] = fs.String(f.flag, "", f.usage)
	}
	return pf
}

// apply copia para p só as flags informadas na linha de comando.
func (pf *payloadFlags) apply(p *models.EmpresaPayload) {
	targets := map[string]*string{
		"tipo":      &p.TipoPessoa,
		"documento": &p.NumeroDocumento,
		"razao":     &p.NomeRazaoSocial,
		"fantasia":  &p.NomeFantasia,
		"atividade": &p.TipoAtividade,
		"cnae":      &p.CNAE,
		"abertura":  &p.DataAbertura,
		"situacao":  &p.Situacao,
		"endereco":  &p.Endereco,
		"cidade":    &p.Cidade,
		"uf":        &p.Estado,
		"telefone":  &p.Telefone,
		"email":     &p.Email,
	}
	for name, target := range targets {
		if pf.fs.Changed(name) {
			*target = *pf.values[name]
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "sim"
	}
	return "não"
}

func empresasList(c *console, args []string) error {
	empresas, err := c.empresas.List(context.Background(), c.sessions.Current())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIPO\tDOCUMENTO\tRAZÃO SOCIAL\tSITUAÇÃO\tCIDADE/UF\tBLOQUEADA")
	for _, e := range empresas {
		local := strings.Trim(e.Cidade+"/"+e.Estado, "/")
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Tipo(), e.DocumentoFormatado(), e.NomeRazaoSocial, e.Situacao, local, yesNo(e.Bloqueada))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d empresa(s)\n", len(empresas))
	return nil
}

func printEmpresa(c *console, e *models.Empresa) {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"ID", strconv.FormatInt(e.ID, 10)},
		{"Tipo", e.Tipo().String()},
		{"Documento", e.DocumentoFormatado()},
		{"Razão social", e.NomeRazaoSocial},
		{"Nome fantasia", e.NomeFantasia},
		{"Atividade", e.TipoAtividade},
		{"CNAE", e.CNAE},
		{"Abertura", e.DataAbertura},
		{"Situação", e.Situacao},
		{"Endereço", e.Endereco},
		{"Cidade/UF", strings.Trim(e.Cidade+"/"+e.Estado, "/")},
		{"Telefone", utils.MaskTelefone(e.Telefone)},
		{"E-mail", e.Email},
		{"Bloqueada", yesNo(e.Bloqueada)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	_ = tw.Flush()
}

func empresasShow(c *console, args []string) error {
	id, err := parseEmpresaID(args)
	if err != nil {
		return err
	}
	e, err := c.empresas.Get(context.Background(), id, c.sessions.Current())
	if err != nil {
		return err
	}
	printEmpresa(c, e)
	return nil
}

func empresasCreate(c *console, args []string) error {
	fs := newFlagSet("empresas create", c.out)
	pf := newPayloadFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	payload := models.EmpresaPayload{TipoPessoa: types.TipoCNPJ.String()}
	pf.apply(&payload)

	created, err := c.empresas.Create(context.Background(), payload, c.sessions.Current())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Empresa criada com sucesso (ID %d).\n", created.ID)
	printEmpresa(c, created)
	return nil
}

func empresasUpdate(c *console, args []string) error {
	id, err := parseEmpresaID(args)
	if err != nil {
		return err
	}
	fs := newFlagSet("empresas update", c.out)
	pf := newPayloadFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if fs.NFlag() == 0 {
		return appErrors.ErrNothingToSave
	}

	session := c.sessions.Current()
	current, err := c.empresas.Get(context.Background(), id, session)
	if err != nil {
		return err
	}
	payload := models.PayloadFromEmpresa(*current)
	pf.apply(&payload)

	updated, err := c.empresas.Update(context.Background(), id, payload, session)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Empresa atualizada com sucesso.")
	printEmpresa(c, updated)
	return nil
}

func empresasDelete(c *console, args []string) error {
	id, err := parseEmpresaID(args)
	if err != nil {
		return err
	}
	fs := newFlagSet("empresas delete", c.out)
	yes := fs.BoolP("sim", "y", false, "não pedir confirmação")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if !*yes {
		answer, err := c.prompt(fmt.Sprintf("Excluir a empresa %d? (s/N): ", id), "")
		if err != nil || !strings.EqualFold(answer, "s") {
			fmt.Fprintln(c.out, "Exclusão cancelada.")
			return nil
		}
	}
	if err := c.empresas.Delete(context.Background(), id, c.sessions.Current()); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Empresa excluída com sucesso.")
	return nil
}

func empresasExists(c *console, args []string) error {
	fs := newFlagSet("empresas exists", c.out)
	tipo := fs.String("tipo", "CNPJ", "tipo de pessoa: CPF ou CNPJ")
	documento := fs.String("documento", "", "CPF ou CNPJ")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t := types.ParseTipoPessoa(*tipo)
	if !utils.IsValidDocumento(t, *documento) {
		return appErrors.NewValidationError("Documento inválido.", map[string]string{"numeroDocumento": t.String() + " inválido"})
	}
	exists, err := c.empresas.Exists(context.Background(), t, utils.OnlyDigits(*documento))
	if err != nil {
		return err
	}
	doc := utils.MaskDocumento(t, *documento)
	if exists {
		fmt.Fprintf(c.out, "%s %s já cadastrado.\n", t, doc)
	} else {
		fmt.Fprintf(c.out, "%s %s não cadastrado.\n", t, doc)
	}
	return nil
}

func empresasExport(c *console, args []string) error {
	fs := newFlagSet("empresas export", c.out)
	formato := fs.StringP("formato", "f", "xlsx", "csv ou xlsx")
	saida := fs.StringP("saida", "o", "", "arquivo de saída (relativo ao diretório de exportação)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := services.ParseExportFormat(*formato)
	if err != nil {
		return err
	}
	path, err := c.empresas.Export(context.Background(), format, *saida, c.sessions.Current())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Arquivo exportado em %s\n", path)
	return nil
}

func empresasImport(c *console, args []string) error {
	fs := newFlagSet("empresas import", c.out)
	relatorio := fs.StringP("relatorio", "r", "", "grava o resultado por linha em CSV")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: informe o arquivo a importar", appErrors.ErrInvalidInput)
	}

	summary, err := c.imports.ImportEmpresas(context.Background(), fs.Arg(0), c.sessions.Current())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Arquivo %s (%s): %d linha(s)\n", summary.File, summary.Encoding, len(summary.Rows))
	fmt.Fprintf(c.out, "  criadas: %d  inválidas: %d  duplicadas: %d  falhas: %d\n",
		summary.Created, summary.Invalid, summary.Duplicated, summary.Failed)

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, r := range summary.Rows {
		if r.Status == services.RowCreated {
			continue
		}
		fmt.Fprintf(tw, "  linha %d\t%s\t%s\t%s\n", r.Line, r.Documento, r.Status, r.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if *relatorio != "" {
		input, err := utils.NewSliceDataInput(summary.ReportData(), "Importacao")
		if err != nil {
			return err
		}
		path, err := utils.ExportToCSV(input, *relatorio, c.cfg.ExportDir, &utils.ExportOptions{})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Relatório gravado em %s\n", path)
	}
	return nil
}
