package scene

// heroBlocks returns the editor workspace for a hero that repeats a single
// move 15 times.
func heroBlocks(prefix string, steps string) string {
	return `{
  "blocks": {
    "languageVersion": 0,
    "blocks": [
      {
        "type": "repeat_animation",
        "id": "` + prefix + `_repeat",
        "x": 70,
        "y": 70,
        "fields": { "TIMES": 15 },
        "inputs": {
          "DO": {
            "block": {
              "type": "move_steps",
              "id": "` + prefix + `_move",
              "fields": { "STEPS": ` + steps + ` }
            }
          }
        }
      }
    ]
  }
}`
}

// HeroExample is the built-in demo: two heroes walking toward each other
// until they bump, halt and trade scripts.
func HeroExample() *File {
	return &File{
		Actors: []ActorSpec{
			{
				ID:      "hero-character-1",
				Name:    "Hero 1 (Right Mover)",
				X:       -150,
				Width:   95,
				Height:  105,
				Program: heroBlocks("hero1", "10"),
			},
			{
				ID:      "hero-character-2",
				Name:    "Hero 2 (Left Mover)",
				X:       150,
				Width:   95,
				Height:  105,
				Program: heroBlocks("hero2", "-10"),
			},
		},
	}
}
