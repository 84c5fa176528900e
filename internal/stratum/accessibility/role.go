package accessibility

import "strings"

// interactiveRoles is the fixed role set kept by the interactive snapshot
// (§4.C5.2): buttons, text fields, text areas, checkboxes, radio buttons,
// popup/combo, sliders, menu items, links, incrementors, disclosure
// triangles, tabs, color wells, date fields.
var interactiveRoles = map[string]bool{
	"button": true, "textfield": true, "textarea": true, "checkbox": true,
	"radio": true, "popup": true, "combobox": true, "slider": true,
	"menu item": true, "link": true, "incrementor": true,
	"disclosure triangle": true, "tab": true, "color well": true,
	"date field": true,
}

// normalizeRole strips the AX-prefix AppleScript accessibility roles carry
// and translates the common ones to this stratum's role vocabulary.
// Grounded on snapshot_accessibility_darwin.go's normalizeRole.
func normalizeRole(raw string) string {
	switch raw {
	case "AXButton":
		return "button"
	case "AXTextField", "AXTextArea":
		return "textfield"
	case "AXStaticText":
		return "static text"
	case "AXCheckBox":
		return "checkbox"
	case "AXRadioButton":
		return "radio"
	case "AXPopUpButton":
		return "popup"
	case "AXComboBox":
		return "combobox"
	case "AXMenuButton", "AXMenu":
		return "menu"
	case "AXMenuItem":
		return "menu item"
	case "AXSlider":
		return "slider"
	case "AXTabGroup":
		return "tab"
	case "AXLink":
		return "link"
	case "AXImage":
		return "image"
	case "AXToolbar":
		return "toolbar"
	case "AXList":
		return "list"
	case "AXTable":
		return "table"
	case "AXScrollBar":
		return "scrollbar"
	case "AXGroup":
		return "group"
	case "AXWindow":
		return "window"
	case "AXDisclosureTriangle":
		return "button"
	case "AXIncrementor":
		return "incrementor"
	case "AXColorWell":
		return "color well"
	case "AXDateField":
		return "date field"
	default:
		return strings.ToLower(strings.TrimPrefix(raw, "AX"))
	}
}

// isInteractive reports whether role belongs to the interactive snapshot's
// fixed role set.
func isInteractive(role string) bool {
	return interactiveRoles[normalizeRole(role)]
}

// matchesRole reports whether candidate matches role either with or
// without the AX-prefix, per find_element's "role matches either with or
// without an AX-prefix" rule (§4.C5).
func matchesRole(candidateRole, wantRole string) bool {
	want := strings.ToLower(wantRole)
	norm := normalizeRole(candidateRole)
	return norm == want || strings.ToLower(strings.TrimPrefix(candidateRole, "AX")) == want
}
