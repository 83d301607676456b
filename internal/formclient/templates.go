package formclient

import "sort"

// 快速预填的留言模板
var templates = map[string]string{
	"motivation": "Bonjour,\n\nJe souhaite gagner en motivation et retrouver une dynamique durable.\n\n" +
		"Contexte : …\nObjectif : …\nCe qui me bloque aujourd’hui : …\n\nMerci,",
	"reconversion": "Bonjour,\n\nJe souhaite préparer une reconversion professionnelle.\n\n" +
		"Contexte : …\nObjectif : …\nContraintes : …\n\nMerci,",
	"clarte": "Bonjour,\n\nJe souhaite clarifier mon projet professionnel et mes prochaines étapes.\n\n" +
		"Contexte : …\nObjectif : …\nContraintes : …\n\nMerci,",
}

// Template 返回指定模板的文本，未知模板返回 false
func Template(kind string) (string, bool) {
	text, ok := templates[kind]
	return text, ok
}

// TemplateNames 返回所有模板名，按字母排序
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
