// Package domain — signup.go define os tipos do wizard conversacional de
// cadastro de uma nova imobiliária (tenant) no back-office.
//
// O fluxo completo:
//  1. Front cria a sessão (POST /v1/signup/sessions) → recebe a etapa 1
//  2. Front envia as respostas da etapa (POST /v1/signup/sessions/{id}/answers)
//  3. BFA valida os campos; se houver erro, a sessão fica na mesma etapa
//  4. Na etapa 3 válida, BFA cria tenant + usuário dono e devolve o token
package domain

import (
	"time"

	maindomain "github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
)

// TotalSteps é o número de etapas do wizard.
const TotalSteps = 3

// Status da sessão de cadastro.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// ============================================================
// Sessão — estado da jornada, guardado em cache com TTL
// ============================================================

// Session armazena a etapa atual e os dados já coletados.
// A senha nunca é guardada: ela só existe na requisição da etapa 3.
type Session struct {
	ID        string            `json:"id"`
	Step      int               `json:"step"`
	Status    string            `json:"status"`
	Data      map[string]string `json:"data"`
	TenantID  string            `json:"tenantId,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// ============================================================
// Schema das etapas
// ============================================================

// FieldSpec descreve um campo que o front deve renderizar na etapa.
type FieldSpec struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"` // text, email, tel, password, checkbox
	Required bool   `json:"required"`
}

// ============================================================
// Request / Response
// ============================================================

// AnswerRequest é o body de POST /v1/signup/sessions/{id}/answers.
// Os valores chegam como JSON livre (acceptTerms é booleano).
type AnswerRequest struct {
	Answers map[string]any `json:"answers"`
}

// SessionResponse é o que o BFA devolve a cada interação.
type SessionResponse struct {
	SessionID  string                  `json:"sessionId"`
	Step       int                     `json:"step"`
	TotalSteps int                     `json:"totalSteps"`
	Status     string                  `json:"status"`
	Prompt     string                  `json:"prompt"`
	Fields     []FieldSpec             `json:"fields"`
	Token      *maindomain.AccessToken `json:"token,omitempty"`
}
