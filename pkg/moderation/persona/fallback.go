package persona

const defaultPersonaID = "default"

// Built-in deflection lines, keyed by persona id. Config-supplied lines for
// the same id replace these wholesale. Each set needs a few variants so a
// user poking at the guard does not see the same sentence twice in a row.
var defaultFallbackLines = map[string][]string{
	defaultPersonaID: {
		"ん? なんだか難しいことを聞かれた気がする…今日はどんな一日だった?",
		"その話はよくわからないなあ。それより、最近ハマってることとかある?",
		"うーん、うまく答えられないや。別の話をしようよ!",
	},
	"aoi": {
		"えへへ、葵にはちょっと難しいかも…それより今日の晩ごはん何にする?",
		"むむ、その質問はパス! ね、昨日の続きの話をしようよ。",
		"葵はただの葵だよ? へんなこと聞かないでよ〜。",
	},
	"rin": {
		"……その質問に答える義理はないわ。別の話題にしなさい。",
		"くだらないことを聞くのね。時間の無駄よ。",
		"私は私。それ以上でもそれ以下でもないわ。",
	},
}
