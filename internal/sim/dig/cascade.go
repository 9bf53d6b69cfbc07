package dig

import (
	"digsite.gg/internal/protocol"
	"digsite.gg/internal/sim/catalogs"
)

// cascadeDown walks the column beneath the cursor spending a damage budget
// cell by cell. dirtOnly restricts the walk to plain dirt (timed power-up);
// otherwise any block the owned tools can affect is fair game (splash item).
// A blocking cell is left undamaged and halts the cascade. The walk is
// iterative and hard-capped so a pathological grid cannot recurse or spin.
func (s *Session) cascadeDown(budget float64, dirtOnly bool) Outcome {
	out := Outcome{}
	depth := s.depth + 1

	for steps := 0; budget > 0 && steps < s.stepLimit; steps++ {
		cell := s.gen.CellAt(s.cursorX, depth)
		if cell == nil {
			break
		}
		if cell.Cleared {
			depth++
			continue
		}
		if dirtOnly && cell.Kind != catalogs.KindDirt {
			break
		}
		if !s.res.Usable(s.tool, cell.Kind) {
			break
		}

		if budget < cell.HP {
			cell.HP -= budget
			out.Damage += budget
			budget = 0
			break
		}
		if cell.Item != "" && !s.pack.Fits(cell.Item) {
			out.Partial = true
			if out.Code == "" {
				out.Code = protocol.ErrBackpackFull
				out.Message = "backpack full, cascade stopped"
			}
			break
		}
		budget -= cell.HP
		out.Damage += cell.HP
		cell.Clear()
		s.collect(cell, &out)
		depth++
	}
	return out
}
