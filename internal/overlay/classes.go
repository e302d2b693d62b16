package overlay

import (
	"strings"

	"github.com/MatthewHallCom/note-sx-server/internal/doc"
)

func hasClass(node *doc.Node, class string) bool {
	for _, existing := range strings.Fields(node.Attr("class")) {
		if existing == class {
			return true
		}
	}
	return false
}

func addClass(node *doc.Node, class string) {
	if hasClass(node, class) {
		return
	}
	current := node.Attr("class")
	if current == "" {
		node.SetAttr("class", class)
		return
	}
	node.SetAttr("class", current+" "+class)
}

func removeClass(node *doc.Node, class string) {
	kept := make([]string, 0, 4)
	for _, existing := range strings.Fields(node.Attr("class")) {
		if existing != class {
			kept = append(kept, existing)
		}
	}
	node.SetAttr("class", strings.Join(kept, " "))
}
