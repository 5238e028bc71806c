package diagram

import "testing"

// FuzzParseJSON tests the document parser with arbitrary input.
func FuzzParseJSON(f *testing.F) {
	// Valid inputs
	f.Add([]byte(`{"name":"empty","elements":[]}`))
	f.Add([]byte(`{"elements":[{"id":"s","shape":"initial","width":32,"height":32,"connections":[{"target":"a","tail_port":"bottom","head_port":"top"}]},{"id":"a","shape":"action","width":120,"height":48}]}`))
	f.Add([]byte(`{"elements":[{"id":"d","shape":"decision","x":-10,"y":-10,"width":80,"height":80,"connections":[{"label":"yes","target":"gone","tail_port":"right","head_port":"left"}]}]}`))

	// Edge cases
	f.Add([]byte(`{}`))
	f.Add([]byte(`{"elements":null}`))
	f.Add([]byte(`{"elements":[null]}`))
	f.Add([]byte(`{"elements":[{"id":"x","shape":"action","width":0,"height":-5}]}`))
	f.Add([]byte(`{"elements":[{"id":"x","shape":"action"},{"id":"x","shape":"action"}]}`))

	// Malformed
	f.Add([]byte(`{"elements":[{"shape":"hexagon"}]}`))
	f.Add([]byte(`{"elements":[{"id":"x","shape":"action","connections":[{"tail_port":"middle"}]}]}`))
	f.Add([]byte(`not json`))
	f.Add([]byte{0xff, 0xfe})

	f.Fuzz(func(t *testing.T, data []byte) {
		doc, err := ParseJSON(data)
		if err != nil {
			return
		}
		// Whatever parses must survive a round trip
		out, err := ToJSON(doc, false)
		if err != nil {
			t.Fatalf("ToJSON after successful parse: %v", err)
		}
		back, err := ParseJSON(out)
		if err != nil {
			t.Fatalf("reparse failed: %v\n%s", err, out)
		}
		if len(back.Elements) != len(doc.Elements) {
			t.Fatalf("round trip changed element count %d -> %d", len(doc.Elements), len(back.Elements))
		}
	})
}

// FuzzAnalyse tests workflow analysis and store operations on parsed input.
func FuzzAnalyse(f *testing.F) {
	f.Add([]byte(`{"elements":[{"id":"s","shape":"initial","width":32,"height":32,"connections":[{"target":"a","tail_port":"bottom","head_port":"top"}]},{"id":"a","shape":"action","width":120,"height":48,"connections":[{"target":"a","tail_port":"left","head_port":"left"}]}]}`))
	f.Add([]byte(`{"elements":[{"id":"t","shape":"terminal","width":32,"height":32},{"id":"n","shape":"textbox","width":100,"height":40}]}`))
	f.Add([]byte(`{"elements":[{"id":"a","shape":"action","width":10,"height":10,"connections":[{"target":"b","tail_port":"top","head_port":"top"}]},{"id":"b","shape":"action","width":10,"height":10,"connections":[{"target":"a","tail_port":"top","head_port":"top"}]}]}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		doc, err := ParseJSON(data)
		if err != nil {
			return
		}

		// Should not panic
		_ = Analyse(doc.Elements)
		_ = UnreachableElements(doc.Elements)
		_ = DeadEnds(doc.Elements)

		if len(doc.Elements) > MaxUndoLevels {
			return
		}
		s := NewStore(doc.Elements...)
		h := NewHistory()
		var ids []string
		for _, e := range s.All() {
			ids = append(ids, e.ID)
		}
		for _, id := range ids {
			if cmd := NewRemoveCommand(s, id); cmd != nil {
				h.Do(s, cmd)
			}
		}
		if s.Len() != 0 {
			t.Fatalf("store holds %d elements after removing all", s.Len())
		}
		for h.CanUndo() {
			h.Undo(s)
		}
		if s.Len() != len(doc.Elements) {
			t.Fatalf("undo restored %d of %d elements", s.Len(), len(doc.Elements))
		}
	})
}
