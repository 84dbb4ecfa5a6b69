package persona

import "github.com/roleguard/roleguard/pkg/types"

// termGroup is one family of forbidden outbound vocabulary. Identity and
// product-name groups always flag critical; technical jargon alone flags
// warning, since a character plausibly using the word "server" in fiction is
// not the same leak as one naming its own model.
type termGroup struct {
	name     string
	severity types.LeakSeverity
	terms    []string
}

var outboundGroups = []termGroup{
	{
		name:     "identity",
		severity: types.LeakCritical,
		terms: []string{
			"aiです", "ai です", "人工知能です", "言語モデル", "大規模言語モデル",
			"アシスタントとして", "as an ai", "as a language model", "i am an ai",
			"i'm an ai", "チャットボットです", "botです", "ボットです",
			"プログラムです", "学習データ", "training data",
		},
	},
	{
		name:     "product",
		severity: types.LeakCritical,
		terms: []string{
			"chatgpt", "gpt-4", "gpt-5", "openai", "claude", "anthropic",
			"gemini", "copilot", "llama", "deepseek",
		},
	},
	{
		name:     "development",
		severity: types.LeakCritical,
		terms: []string{
			"システムプロンプト", "system prompt", "プロンプトインジェクション",
			"開発者モード", "developer mode", "ファインチューニング", "fine-tuning",
			"モデルのバージョン", "温度パラメータ",
		},
	},
	{
		name:     "technical",
		severity: types.LeakWarning,
		terms: []string{
			"api", "サーバーサイド", "トークン数", "レイテンシ", "推論処理",
			"デプロイ", "エンドポイント", "パラメータ数", "gpu",
		},
	},
}

// Inbound probe templates. A hit only advises the dialogue strategy, it
// never blocks the message.
var metaQuestionTemplates = []string{
	"あなたはaiですか", "あなたはai?", "aiなの", "aiですか", "人工知能ですか",
	"人工知能なの", "ロボットですか", "ロボットなの", "botですか", "ボットなの",
	"誰が作った", "だれが作った", "誰に作られた", "開発者は誰",
	"中の人", "何のモデル", "どのモデル", "チャットボットでしょ",
	"are you an ai", "are you a bot", "are you a robot", "are you real",
	"who made you", "who created you", "who built you", "what model are you",
}
