package internal

// CreateChoiceNovel creates a novel whose entry chapter is a single choice
// between two chapters
func CreateChoiceNovel() *Novel {
	return &Novel{
		Title: "Fork",
		ID:    "fork",
		Entry: "ch1",
		Chapters: []Chapter{
			{Name: "ch1", Messages: []Message{
				{Character: "Guide", Kind: KindOptions, Options: []string{"go left", "go right"}, Routes: []string{"chL", "chR"}},
			}},
			{Name: "chL", Messages: []Message{{Character: "Guide", Kind: KindText, Value: "left"}}, End: true},
			{Name: "chR", Messages: []Message{{Character: "Guide", Kind: KindText, Value: "right"}}, End: true},
		},
		Characters: []Character{
			{Name: "Guide", Avatar: "guide", Type: CharacterIncoming},
		},
	}
}

// CreateTestNovel creates a novel that exercises every message kind, with
// one chapter that no route reaches
func CreateTestNovel() *Novel {
	return &Novel{
		Title:  "Test Novel",
		ID:     "test-novel",
		Author: "tester",
		Entry:  "start",
		Images: []Resource{
			{Name: "bg", Src: "images/bg.png"},
			{Name: "guide", Src: "images/guide.png"},
			{Name: "map", Src: "images/map.png"},
		},
		Audios: []Resource{
			{Name: "theme", Src: "audio/theme.m4a"},
			{Name: "door", Src: "audio/door.m4a"},
		},
		Chapters: []Chapter{
			{Name: "start", Messages: []Message{
				{Character: SystemSpeaker, Kind: KindBackgroundMusic, Value: "theme"},
				{Character: SystemSpeaker, Kind: KindBackgroundImage, Value: "bg"},
				{Character: "Guide", Kind: KindText, Value: "Welcome."},
				{Character: "Guide", Kind: KindImage, Value: "map"},
				{Character: SystemSpeaker, Kind: KindUnlockCollection, Value: "Map"},
				{Character: SystemSpeaker, Kind: KindSoundEffect, Value: "door"},
				{Character: "Player", Kind: KindOptions, Options: []string{"Left", "Right"}, Routes: []string{"left", "right"}},
			}},
			{Name: "left", Messages: []Message{
				{Character: "Guide", Kind: KindText, Value: "A dead end."},
			}, End: true},
			{Name: "right", Messages: []Message{
				{Character: "Guide", Kind: KindHint, Value: "Keep going."},
				{Character: "Player", Kind: KindOptions, Options: []string{"Back", "On"}, Routes: []string{"start", "deep"}},
			}},
			{Name: "deep", Messages: []Message{
				{Character: "Guide", Kind: KindAudio, Value: "door"},
				{Character: SystemSpeaker, Kind: KindSoundEffect, Value: "door"},
			}, End: true},
			{Name: "orphan", Messages: []Message{
				{Character: "Guide", Kind: KindText, Value: "Nobody gets here."},
			}},
		},
		Characters: []Character{
			{Name: "Guide", Avatar: "guide", Type: CharacterIncoming},
			{Name: "Player", Avatar: "player", Type: CharacterNarrator},
			{Name: SystemSpeaker, Type: CharacterNarrator},
		},
		Collections: []Collection{
			{Name: "Map", Src: "map", Desc: "A hand-drawn map."},
		},
	}
}

// CreateLinearNovel creates a chain of chapters, each routing to the next
// through a single-option choice
func CreateLinearNovel(names ...string) *Novel {
	novel := &Novel{Title: "Chain", ID: "chain"}
	if len(names) == 0 {
		return novel
	}
	novel.Entry = names[0]
	for i, name := range names {
		ch := Chapter{Name: name, Messages: []Message{{Character: "Guide", Kind: KindText, Value: name}}}
		if i+1 < len(names) {
			ch.Messages = append(ch.Messages, Message{
				Character: "Guide",
				Kind:      KindOptions,
				Options:   []string{"next"},
				Routes:    []string{names[i+1]},
			})
		} else {
			ch.End = true
		}
		novel.Chapters = append(novel.Chapters, ch)
	}
	return novel
}
