package tui

type View int

const (
	ViewList View = iota
	ViewTagPicker
	ViewTagEditor
	ViewDetail
)

func (v View) String() string {
	switch v {
	case ViewTagPicker:
		return "tags"
	case ViewTagEditor:
		return "edit tags"
	case ViewDetail:
		return "detail"
	default:
		return "list"
	}
}
