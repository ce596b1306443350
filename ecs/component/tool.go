package component

// Tool is an item usable for delayed tool actions. SpeedModifier divides the
// requested delay; values <= 0 are treated as 1.
type Tool struct {
	Qualities     []string
	SpeedModifier float64
}

var ToolComponent = NewComponent[Tool]()

// HasQuality reports whether the tool provides quality. An empty quality is
// satisfied by any tool.
func (t *Tool) HasQuality(quality string) bool {
	if t == nil {
		return false
	}
	if quality == "" {
		return true
	}
	for _, q := range t.Qualities {
		if q == quality {
			return true
		}
	}
	return false
}

// ToolUse is an in-flight delayed tool action, stored on the target entity.
type ToolUse struct {
	Tool       uint64 // ecs.Entity
	User       uint64 // ecs.Entity
	Quality    string
	Completion string
	Remaining  float64 // seconds
	Total      float64
	Finished   bool
}

var ToolUseComponent = NewComponent[ToolUse]()
