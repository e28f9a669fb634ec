// Package service — signup_steps.go implementa as etapas do wizard.
//
// ============================================================
// JORNADA DE CADASTRO — 3 Etapas
// ============================================================
//
//	Etapa 1 — Dados da Empresa:
//	  → razão social, CPF/CNPJ, e-mail
//
//	Etapa 2 — Dados do Responsável:
//	  → nome completo, telefone (WhatsApp)
//
//	Etapa 3 — Acesso:
//	  → senha (mín. 8, letra + número), aceite dos termos
//
// Cada etapa é uma strategy: sabe quais campos pede e como validá-los.
// O SignupService só escolhe a strategy da etapa atual.
package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/service"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/domain"
)

const msgRequired = "Campo obrigatório"

// StepStrategy define o contrato de uma etapa do wizard.
type StepStrategy interface {
	// Number é a posição da etapa (1..TotalSteps).
	Number() int

	// Prompt é a pergunta exibida ao usuário.
	Prompt() string

	// Fields é o schema dos campos da etapa.
	Fields() []domain.FieldSpec

	// Validate normaliza os valores e devolve os erros por campo.
	// Mapa vazio significa etapa válida.
	Validate(values map[string]string) (normalized map[string]string, errs map[string]string)
}

// DefaultSteps devolve as três etapas na ordem da jornada.
func DefaultSteps() []StepStrategy {
	return []StepStrategy{companyStep{}, ownerStep{}, credentialsStep{}}
}

// ============================================================
// Etapa 1 — empresa
// ============================================================

type companyStep struct{}

func (companyStep) Number() int { return 1 }

func (companyStep) Prompt() string {
	return "Vamos começar pelos dados da sua imobiliária."
}

func (companyStep) Fields() []domain.FieldSpec {
	return []domain.FieldSpec{
		{Name: "companyName", Label: "Razão social", Type: "text", Required: true},
		{Name: "document", Label: "CPF ou CNPJ", Type: "text", Required: true},
		{Name: "email", Label: "E-mail", Type: "email", Required: true},
	}
}

func (companyStep) Validate(values map[string]string) (map[string]string, map[string]string) {
	out := map[string]string{}
	errs := map[string]string{}

	name := strings.TrimSpace(values["companyName"])
	switch {
	case name == "":
		errs["companyName"] = msgRequired
	case utf8.RuneCountInString(name) < 2:
		errs["companyName"] = "Informe ao menos 2 caracteres"
	}
	out["companyName"] = name

	doc := service.Digits(values["document"])
	switch {
	case strings.TrimSpace(values["document"]) == "":
		errs["document"] = msgRequired
	case len(doc) != 11 && len(doc) != 14:
		errs["document"] = "Informe um CPF (11 dígitos) ou CNPJ (14 dígitos)"
	}
	out["document"] = doc

	email := strings.ToLower(strings.TrimSpace(values["email"]))
	switch {
	case email == "":
		errs["email"] = msgRequired
	case !service.ValidEmail(email):
		errs["email"] = "E-mail inválido"
	}
	out["email"] = email

	return out, errs
}

// ============================================================
// Etapa 2 — responsável
// ============================================================

type ownerStep struct{}

func (ownerStep) Number() int { return 2 }

func (ownerStep) Prompt() string {
	return "Agora, quem vai administrar a conta?"
}

func (ownerStep) Fields() []domain.FieldSpec {
	return []domain.FieldSpec{
		{Name: "ownerName", Label: "Nome completo", Type: "text", Required: true},
		{Name: "phone", Label: "Telefone (WhatsApp)", Type: "tel", Required: true},
	}
}

func (ownerStep) Validate(values map[string]string) (map[string]string, map[string]string) {
	out := map[string]string{}
	errs := map[string]string{}

	name := strings.TrimSpace(values["ownerName"])
	switch {
	case name == "":
		errs["ownerName"] = msgRequired
	case utf8.RuneCountInString(name) < 3:
		errs["ownerName"] = "Informe ao menos 3 caracteres"
	}
	out["ownerName"] = name

	phone := service.Digits(values["phone"])
	switch {
	case strings.TrimSpace(values["phone"]) == "":
		errs["phone"] = msgRequired
	case len(phone) < 10 || len(phone) > 13:
		errs["phone"] = "Telefone deve ter entre 10 e 13 dígitos"
	}
	out["phone"] = phone

	return out, errs
}

// ============================================================
// Etapa 3 — acesso
// ============================================================

type credentialsStep struct{}

func (credentialsStep) Number() int { return 3 }

func (credentialsStep) Prompt() string {
	return "Por fim, crie sua senha de acesso."
}

func (credentialsStep) Fields() []domain.FieldSpec {
	return []domain.FieldSpec{
		{Name: "password", Label: "Senha", Type: "password", Required: true},
		{Name: "acceptTerms", Label: "Li e aceito os termos de uso", Type: "checkbox", Required: true},
	}
}

func (credentialsStep) Validate(values map[string]string) (map[string]string, map[string]string) {
	out := map[string]string{}
	errs := map[string]string{}

	pw := values["password"]
	switch {
	case pw == "":
		errs["password"] = msgRequired
	case utf8.RuneCountInString(pw) < 8:
		errs["password"] = "A senha deve ter ao menos 8 caracteres"
	case !hasLetterAndDigit(pw):
		errs["password"] = "A senha deve conter letras e números"
	}
	out["password"] = pw

	if values["acceptTerms"] != "true" {
		errs["acceptTerms"] = "É necessário aceitar os termos de uso"
	}
	return out, errs
}

func hasLetterAndDigit(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}
