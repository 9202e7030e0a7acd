package classification

import (
	"regexp"

	"crm_server/core/domain"
)

// =============================================================================
// Pattern Catalogs
// =============================================================================

// messagePattern is one recognition rule. The category is attached to the
// interaction when the rule fires; hasValue marks rules whose matches usually
// carry a monetary amount.
type messagePattern struct {
	re       *regexp.Regexp
	category string
	hasValue bool
}

var purchasePatterns = []messagePattern{
	{re: regexp.MustCompile(`(?i)comprei|compra|gastei|paguei|adquiri`), category: "geral", hasValue: true},
	{re: regexp.MustCompile(`(?i)supermercado|mercado|alimentação|comida`), category: "alimentação", hasValue: true},
	{re: regexp.MustCompile(`(?i)roupa|vestuário|calça|camisa|vestido|sapato`), category: "vestuário", hasValue: true},
	{re: regexp.MustCompile(`(?i)eletrônico|celular|computador|tv|notebook`), category: "eletrônicos", hasValue: true},
	{re: regexp.MustCompile(`(?i)casa|móvel|decoração|cozinha`), category: "casa", hasValue: true},
}

var feedbackPatterns = []messagePattern{
	{re: regexp.MustCompile(`(?i)gostei|adorei|excelente|ótimo|perfeito|recomendo`), category: "positivo"},
	{re: regexp.MustCompile(`(?i)não gostei|ruim|péssimo|horrível|decepcionado`), category: "negativo"},
	{re: regexp.MustCompile(`(?i)feedback|opinião|avaliação|comentário`), category: "geral"},
}

var complaintPatterns = []messagePattern{
	{re: regexp.MustCompile(`(?i)reclamação|problema|defeito|quebrado|não funciona`), category: "produto"},
	{re: regexp.MustCompile(`(?i)atendimento|demora|espera|mal atendido`), category: "atendimento"},
	{re: regexp.MustCompile(`(?i)entrega|atraso|não chegou|perdido`), category: "entrega"},
}

var questionPatterns = []messagePattern{
	{re: regexp.MustCompile(`(?i)\?|como|quando|onde|qual|quanto|por que`), category: "informação"},
	{re: regexp.MustCompile(`(?i)preço|valor|custo|quanto custa`), category: "preço"},
	{re: regexp.MustCompile(`(?i)disponível|estoque|tem|possui`), category: "disponibilidade"},
}

var profilePatterns = []messagePattern{
	{re: regexp.MustCompile(`(?i)meu nome é|me chamo|sou|trabalho como|profissão`), category: "identificação"},
	{re: regexp.MustCompile(`(?i)moro em|cidade|endereço|localização`), category: "localização"},
	{re: regexp.MustCompile(`(?i)idade|anos|nasci|aniversário`), category: "idade"},
}

// categoryScanOrder is the catalog order used for category extraction. Only
// rules of the already-detected interaction type are consulted.
var categoryScanOrder = []struct {
	interactionType domain.InteractionType
	patterns        []messagePattern
}{
	{domain.InteractionPurchase, purchasePatterns},
	{domain.InteractionFeedback, feedbackPatterns},
	{domain.InteractionComplaint, complaintPatterns},
	{domain.InteractionQuestion, questionPatterns},
	{domain.InteractionProfileUpdate, profilePatterns},
}

// =============================================================================
// Sentiment Lexicons
// =============================================================================

var positiveWords = []string{
	"bom", "ótimo", "excelente", "perfeito", "adorei", "gostei",
	"maravilhoso", "fantástico", "incrível", "satisfeito", "feliz",
	"recomendo", "aprovado",
}

var negativeWords = []string{
	"ruim", "péssimo", "horrível", "terrível", "odeio", "detesto",
	"problema", "defeito", "quebrado", "insatisfeito", "decepcionado",
	"frustrado", "raiva",
}

// =============================================================================
// Monetary Value Extraction
// =============================================================================

// valuePatterns are tried in order. The first family with at least one match
// is the only one consulted; a family that matches but yields no parseable
// number does not fall through to the next.
var valuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`R\$\s*(\d+(?:[.,]\d{2})?)`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d{2})?)?\s*reais?`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d{2})?)\s*(?:R\$|reais?)`),
}

var valueNumberRe = regexp.MustCompile(`(\d+(?:[.,]\d{2})?)`)

// =============================================================================
// Entity Extraction
// =============================================================================

var (
	entityNameRe       = regexp.MustCompile(`(?i)(?:me chamo|meu nome é|sou)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	entityCityRe       = regexp.MustCompile(`(?i)(?:moro em|cidade|de)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	entityAgeRe        = regexp.MustCompile(`(?i)(\d{1,2})\s*anos?`)
	entityProfessionRe = regexp.MustCompile(`(?i)(?:trabalho como|sou|profissão)\s+([a-z]+(?:\s+[a-z]+)*)`)
)
