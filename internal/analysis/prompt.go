package analysis

import (
	"fmt"
	"strings"
)

// Sections are the headings every analysis is asked to contain, in order.
var Sections = []string{
	"RESUMO EXECUTIVO",
	"PARTICIPANTES",
	"TÓPICOS PRINCIPAIS",
	"DECISÕES TOMADAS",
	"AÇÕES E TAREFAS",
	"PONTOS IMPORTANTES",
	"PRÓXIMOS PASSOS",
	"OBSERVAÇÕES",
}

func systemPrompt() string {
	var b strings.Builder
	b.WriteString("Você é um assistente especializado em analisar conversas e reuniões.\n")
	b.WriteString("Analise a transcrição fornecida e extraia os seguintes insights estruturados:\n")
	for i, s := range Sections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nResponda em markdown, com cada seção iniciando por \"## <número>. <TÍTULO>\".\n")
	b.WriteString("Use apenas informações presentes na transcrição. Se uma seção não tiver conteúdo, escreva \"Não identificado\".\n")
	return b.String()
}

func userPrompt(transcript string) string {
	return "Transcrição:\n\n" + transcript
}

// MissingSections lists the headings that do not appear in analysis.
func MissingSections(analysis string) []string {
	upper := strings.ToUpper(analysis)
	var missing []string
	for _, s := range Sections {
		if !strings.Contains(upper, s) {
			missing = append(missing, s)
		}
	}
	return missing
}
