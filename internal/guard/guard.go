// Package guard decide, a cada navegação, se a identidade atual pode ver a
// página pedida. Evaluate é uma função pura sobre (snapshot, papéis exigidos).
package guard

import (
	"egovportal/internal/domain"
	"egovportal/internal/session"
)

// Outcome é o tipo da decisão.
type Outcome int

const (
	// Wait: a sessão ainda está carregando; mostrar indicador neutro.
	Wait Outcome = iota
	// Allow: renderizar a página pedida.
	Allow
	// Redirect: navegar para Decision.Path.
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision é o resultado de Evaluate.
type Decision struct {
	Outcome Outcome
	Path    string // preenchido apenas em Redirect
}

// RedirectTo monta uma decisão de redirecionamento.
func RedirectTo(path string) Decision { return Decision{Outcome: Redirect, Path: path} }

var (
	allowDecision = Decision{Outcome: Allow}
	waitDecision  = Decision{Outcome: Wait}
)

// Evaluate aplica as regras de acesso:
//   - páginas sem papéis exigidos são sempre permitidas;
//   - enquanto a sessão carrega, nenhuma decisão é tomada (Wait);
//   - sem sessão, ou com papel fora do conjunto exigido, redireciona para "/".
func Evaluate(snap session.Snapshot, required []domain.UserRole) Decision {
	if len(required) == 0 {
		return allowDecision
	}
	if snap.Loading {
		return waitDecision
	}
	if snap.Session == nil {
		return RedirectTo(session.LandingPath)
	}
	for _, r := range required {
		if snap.Session.User.Role == r {
			return allowDecision
		}
	}
	return RedirectTo(session.LandingPath)
}
