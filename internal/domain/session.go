package domain

// Session é a representação em memória (e persistida) de "quem está logado".
// Existe se e somente se token e usuário estiverem presentes no armazenamento.
type Session struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

// Chaves do armazenamento persistente.
const (
	StorageKeyToken = "token"
	StorageKeyUser  = "user"
)

// AuthResult é o resultado de login/registro. Nunca carrega um error:
// quem chama sempre recebe sucesso com a identidade ou falha com a mensagem.
type AuthResult struct {
	Success  bool
	Identity Identity
	Message  string
}

// AuthSuccess monta um AuthResult de sucesso.
func AuthSuccess(identity Identity) AuthResult {
	return AuthResult{Success: true, Identity: identity}
}

// AuthFailure monta um AuthResult de falha.
func AuthFailure(message string) AuthResult {
	return AuthResult{Success: false, Message: message}
}

// AuthPayload é o corpo devolvido por /auth/login e /auth/register: {data:{token,user}}.
type AuthPayload struct {
	Message string `json:"message,omitempty"`
	Data    struct {
		Token string   `json:"token"`
		User  Identity `json:"user"`
	} `json:"data"`
}
