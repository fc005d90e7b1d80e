package grammar

// State labels of the built-in lab menu.
const (
	StateStart    = "start"
	StatePrint1   = "print_1"
	StatePrint2   = "print_2"
	StateProblem1 = "problem_1"
	StateFAQ1     = "question_1"
)

// Default returns the built-in help-desk menu for the Linux lab. Used when
// no grammar file is configured.
func Default() Config {
	return Config{
		Initial:  StateStart,
		Fallback: defaultFallback,
		Rules: []Rule{
			{Label: "Sobre Impressão", From: StateStart, To: StatePrint1},
			{Label: "Reportar Problema", From: StateStart, To: StateProblem1},
			{Label: "Tirar Dúvida", From: StateStart, To: StateFAQ1},
			{Label: "Próximo", From: StatePrint1, To: StatePrint2},
			{Label: "Recomeçar", From: Wildcard, To: StateStart},
		},
		Content: map[string]string{
			StateStart: "Olá! Eu sou o assistente do laboratório Linux. " +
				"Como posso ajudar?",
			StatePrint1: "Cada aluno tem uma cota de 100 páginas por semestre. " +
				"A cota é renovada no início de cada período e pode ser " +
				"consultada em qualquer terminal com o comando 'quota -p'.",
			StatePrint2: "Para imprimir, use 'lpr -P lab <arquivo>' em qualquer " +
				"máquina do laboratório. PDF e PostScript são aceitos. " +
				"A impressora fica na sala 407.",
			StateProblem1: "Para reportar um problema, envie um e-mail para " +
				"suporte@linux.lab com o número da máquina e uma descrição " +
				"do ocorrido.",
			StateFAQ1: "As dúvidas mais frequentes estão respondidas em " +
				"https://linux.lab/faq. Se não encontrar a resposta, escreva " +
				"para suporte@linux.lab.",
		},
		Intercepts: map[string]string{
			"sudo": "sudo: você não está no arquivo sudoers. " +
				"Este incidente será reportado.",
			"/ping": "pong",
		},
	}
}
