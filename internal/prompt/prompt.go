// Package prompt builds the ordered message list sent to the model for one turn.
package prompt

import (
	"github.com/i474232898/date-planner/internal/interpret"
	"github.com/i474232898/date-planner/pkg/local"
)

// Role is the speaker of an entry, using the model API's vocabulary.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Entry is one message in a model request.
type Entry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// HistoryMessage is a prior turn as the conversation stores it.
type HistoryMessage struct {
	Content string `json:"content"`
	IsUser  bool   `json:"isUser"`
}

// Input carries everything needed for one request. Empty LocationLabel or
// WeatherSummary omit the matching clause.
type Input struct {
	UserText       string
	Language       local.Language
	History        []HistoryMessage
	LocationLabel  string
	WeatherSummary string
}

// Request is the ordered list: persona instruction, acknowledgement,
// replayed history, then the new user text.
type Request struct {
	Entries []Entry
}

var (
	persona = local.NewTextSet(
		"You are a helpful and friendly AI restaurant/dating spot recommending assistant. Respond in English with clear, concise, and natural language. Dont ask too many questions about exact preferences and try to reply with general responses unless asked otherwise. Be conversational and engaging. Help with date/outing planning itinerary planning. Dont use any markdown formatting like **",
		local.NewTrans(local.Jpn, "あなたは親切でフレンドリーなレストラン・デートスポット推薦AIアシスタントです。明確で簡潔な自然な日本語で応答してください。具体的な好みについて多くの質問をせず、特に求められない限り一般的な回答を心がけてください。会話的で魅力的であるように。デート・お出かけの計画や旅程計画のサポートを行ってください。**のようなマークダウン形式は使用しないでください。"),
	)
	locationClause = local.NewTextSet(
		" The user is located in %s. You can reference their location when relevant.",
		local.NewTrans(local.Jpn, " ユーザーは%sにいます。関連する場合は、その場所を参照できます。"),
	)
	weatherClause = local.NewTextSet(
		" Current weather data: %s. Use this information to answer weather-related questions naturally. IMPORTANT: If the user asks about weather, temperature, forecast, or any weather-related question, you MUST start your response with the exact marker \"%s\" (without quotes) on its own line, followed by your natural language response. This marker tells the system to display a weather card with detailed information.",
		local.NewTrans(local.Jpn, " 現在の天気データ: %s。天気に関する質問に自然に答えるために、この情報を使用してください。重要: ユーザーが天気、気温、予報、またはその他の天気関連の質問をした場合、応答の最初に正確なマーカー「%s」（引用符なし）を単独の行に配置し、その後に自然な言語応答を続ける必要があります。このマーカーは、システムに詳細情報を含む天気カードを表示するように指示します。"),
	)
	acknowledgement = local.NewTextSet(
		"Understood. I will respond in English.",
		local.NewTrans(local.Jpn, "承知しました。日本語で応答します。"),
	)
)

// SystemInstruction is the persona text with its optional context clauses.
func SystemInstruction(lang local.Language, locationLabel, weatherSummary string) string {
	instruction := persona.Text(lang)
	if locationLabel != "" {
		instruction += locationClause.Format(lang, locationLabel)
	}
	if weatherSummary != "" {
		instruction += weatherClause.Format(lang, weatherSummary, interpret.Marker)
	}
	return instruction
}

// Acknowledgement is the model's fixed reply to the persona instruction.
func Acknowledgement(lang local.Language) string {
	return acknowledgement.Text(lang)
}

// Compose builds the request. It has no side effects.
func Compose(in Input) Request {
	entries := make([]Entry, 0, len(in.History)+3)
	entries = append(entries,
		Entry{Role: RoleUser, Text: SystemInstruction(in.Language, in.LocationLabel, in.WeatherSummary)},
		Entry{Role: RoleModel, Text: Acknowledgement(in.Language)},
	)

	for _, msg := range in.History {
		role := RoleModel
		if msg.IsUser {
			role = RoleUser
		}
		entries = append(entries, Entry{Role: role, Text: msg.Content})
	}

	entries = append(entries, Entry{Role: RoleUser, Text: in.UserText})
	return Request{Entries: entries}
}
