package types

const (
	CategoryTreasury       = "treasury"
	CategoryOrganisational = "organisational"
	CategoryLegal          = "legal"
	CategoryGeneral        = "general"
	CategoryOther          = "other"
)

// Categories is the closed set of conversation categories. Adding one requires
// updating both the classification prompt and the keyword fallback table.
var Categories = []string{
	CategoryTreasury,
	CategoryOrganisational,
	CategoryLegal,
	CategoryGeneral,
	CategoryOther,
}

// CategoryDescriptions feed the classification prompt, one line per category.
var CategoryDescriptions = map[string]string{
	CategoryTreasury:       "trésorerie, comptabilité, factures, TVA, cotisations, budget",
	CategoryOrganisational: "statuts, assemblées générales, conseil d'administration, mandats, organisation interne",
	CategoryLegal:          "contrats, clauses, responsabilité, litiges, obligations légales",
	CategoryGeneral:        "questions générales sur la vie de la structure",
	CategoryOther:          "tout ce qui ne rentre dans aucune autre catégorie",
}

// IsValidCategory reports whether c belongs to the closed category set.
func IsValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Conversation is the durable record of a chat thread.
type Conversation struct {
	ID        string `bson:"_id" json:"id"`
	Title     string `bson:"title" json:"title"`
	Category  string `bson:"category" json:"category"`
	CreatedAt int64  `bson:"created_at" json:"created_at"`
	UpdatedAt int64  `bson:"updated_at" json:"updated_at"`
}

// Exchange is one question/answer pair within a conversation.
type Exchange struct {
	ID             string `bson:"_id,omitempty" json:"id"`
	ConversationID string `bson:"conversation_id" json:"conversation_id"`
	Question       string `bson:"question" json:"question"`
	Answer         string `bson:"answer" json:"answer"`
	CreatedAt      int64  `bson:"created_at" json:"created_at"`
}

// ConversationMetadata is the title/category payload produced by the metadata
// generator. The model output is untrusted; it must be validated before use.
type ConversationMetadata struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}
