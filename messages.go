package goSession

// Messages are the user-facing strings placed in Result.Error.
type Messages struct {
	NameTooShort   string
	SecretTooShort string
	InvalidEmail   string
	LoginFailed    string
	RegisterFailed string
	Connection     string
	Storage        string
}

// DefaultMessages returns the club application's Portuguese messages.
func DefaultMessages() Messages {
	return Messages{
		NameTooShort:   "Nome deve ter pelo menos 2 caracteres",
		SecretTooShort: "Senha deve ter pelo menos 6 caracteres",
		InvalidEmail:   "Email inválido",
		LoginFailed:    "Falha na autenticação",
		RegisterFailed: "Falha no cadastro",
		Connection:     "Erro de conexão",
		Storage:        "Não foi possível salvar a sessão",
	}
}

func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&m.NameTooShort, d.NameTooShort)
	fill(&m.SecretTooShort, d.SecretTooShort)
	fill(&m.InvalidEmail, d.InvalidEmail)
	fill(&m.LoginFailed, d.LoginFailed)
	fill(&m.RegisterFailed, d.RegisterFailed)
	fill(&m.Connection, d.Connection)
	fill(&m.Storage, d.Storage)
	return m
}
