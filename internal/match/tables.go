package match

import "strings"

// synonymGroups lists skills that name the same technology. Matching within
// a group scores slightly below an exact match.
var synonymGroups = [][]string{
	{"javascript", "js", "ecmascript"},
	{"typescript", "ts"},
	{"postgresql", "postgres"},
	{"kubernetes", "k8s"},
	{"golang", "go"},
	{"c#", "csharp", ".net"},
	{"node.js", "nodejs", "node"},
	{"react", "reactjs", "react.js"},
	{"vue", "vuejs", "vue.js"},
	{"angular", "angularjs"},
	{"amazon web services", "aws"},
	{"google cloud", "gcp", "google cloud platform"},
	{"microsoft azure", "azure"},
	{"ci/cd", "cicd", "continuous integration"},
	{"scrum", "agile"},
	{"ml", "machine learning"},
	{"ai", "artificial intelligence"},
}

// softSkills never go through the embedding stage. Vectors for short generic
// phrases like "teamwork" land close to every other soft skill, producing
// junk matches; these only count when named exactly or via synonym.
var softSkills = map[string]struct{}{
	"communication":     {},
	"teamwork":          {},
	"leadership":        {},
	"problem solving":   {},
	"time management":   {},
	"creativity":        {},
	"adaptability":      {},
	"critical thinking": {},
	"presentation":      {},
	"mentoring":         {},
}

// exceptionPairs overrides any match between the two skills to a non-match.
// They catch lexically or semantically close names that are genuinely
// different technologies.
var exceptionPairs = [][2]string{
	{"java", "javascript"},
	{"java", "js"},
	{"c", "c#"},
	{"c", "c++"},
	{"r", "ruby"},
	{"go", "gojs"},
}

var synonymIndex map[string]int

var exceptionIndex map[[2]string]struct{}

func init() {
	synonymIndex = make(map[string]int)
	for i, group := range synonymGroups {
		for _, name := range group {
			synonymIndex[name] = i
		}
	}

	exceptionIndex = make(map[[2]string]struct{})
	for _, pair := range exceptionPairs {
		a, b := pair[0], pair[1]
		exceptionIndex[[2]string{a, b}] = struct{}{}
		exceptionIndex[[2]string{b, a}] = struct{}{}
	}
}

// normalize maps a skill name to its comparison form: lowercased, trimmed,
// with stray quoting from extracted text removed.
func normalize(skill string) string {
	s := strings.ToLower(strings.TrimSpace(skill))
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "'", "")
	return strings.TrimSpace(s)
}

// Synonyms reports whether two normalized skills belong to the same synonym
// group.
func Synonyms(a, b string) bool {
	ga, okA := synonymIndex[a]
	gb, okB := synonymIndex[b]
	return okA && okB && ga == gb
}

// SoftSkill reports whether a normalized skill is a soft skill.
func SoftSkill(skill string) bool {
	_, ok := softSkills[skill]
	return ok
}

// Exception reports whether any match between the two normalized skills must
// be discarded.
func Exception(a, b string) bool {
	_, ok := exceptionIndex[[2]string{a, b}]
	return ok
}
