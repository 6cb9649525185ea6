package energy_params

import (
	"encoding/json"
	"fmt"
	"math"
)

// jsonDoc mirrors the external parameter-file schema (spec §6): a
// top-level object with `dG` arrays (the only half this package persists --
// see Scale's doc comment on why this placeholder table has no independent
// ΔH), `material`, and `default_wobble_pairing`. Every array is a flat list
// of floats in kcal/mol, flattened row-major from Table's nested slices (the
// last index varies fastest; closing pair(s) first, then unpaired bases
// 5'->3'). Column-major files are not read correctly.
type jsonDoc struct {
	Material             string             `json:"material"`
	DefaultWobblePairing bool               `json:"default_wobble_pairing"`
	DG                   map[string][]float64 `json:"dG"`
	TriLoop              map[string]float64 `json:"tri_loop"`
	TetraLoop            map[string]float64 `json:"tetra_loop"`
	HexaLoop             map[string]float64 `json:"hexa_loop"`
	Scalars              map[string]float64 `json:"scalars"`
}

const (
	keyStack           = "stack"
	keyCoaxialStack    = "coaxial_stack"
	keyInterior1x1     = "interior_1x1"
	keyInterior2x1     = "interior_2x1"
	keyInterior2x2     = "interior_2x2"
	keyMismatchInt     = "mismatch_interior"
	keyMismatch1xn     = "mismatch_1xn_interior"
	keyMismatch2x3     = "mismatch_2x3_interior"
	keyMismatchHairpin = "mismatch_hairpin"
	keyMismatchMulti   = "mismatch_multi"
	keyMismatchExt     = "mismatch_exterior"
	keyDangle5         = "dangle_5"
	keyDangle3         = "dangle_3"
	keyHairpin         = "hairpin"
	keyBulge           = "bulge"
	keyInteriorLoop    = "interior_loop"
	keyNinio           = "ninio"
)

const dcalPerKcal = 100.0

func toDcal(v float64) int    { return int(v*dcalPerKcal + sign(v)*0.5) }
func fromDcal(v int) float64  { return float64(v) / dcalPerKcal }
func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func flatten2D(src [][]int) []float64 {
	out := make([]float64, 0, len(src)*len(src[0]))
	for _, row := range src {
		for _, v := range row {
			out = append(out, fromDcal(v))
		}
	}
	return out
}

func unflatten2D(flat []float64, a, b int) [][]int {
	out := make2D(a, b)
	idx := 0
	for i := 0; i < a; i++ {
		for j := 0; j < b; j++ {
			out[i][j] = toDcal(flat[idx])
			idx++
		}
	}
	return out
}

func flatten3D(src [][][]int) []float64 {
	out := make([]float64, 0)
	for _, p := range src {
		for _, row := range p {
			for _, v := range row {
				out = append(out, fromDcal(v))
			}
		}
	}
	return out
}

func unflatten3D(flat []float64, a, b, c int) [][][]int {
	out := make3D(a, b, c)
	idx := 0
	for i := 0; i < a; i++ {
		for j := 0; j < b; j++ {
			for k := 0; k < c; k++ {
				out[i][j][k] = toDcal(flat[idx])
				idx++
			}
		}
	}
	return out
}

func flatten1D(src []int) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = fromDcal(v)
	}
	return out
}

func unflatten1D(flat []float64) []int {
	out := make([]int, len(flat))
	for i, v := range flat {
		out[i] = toDcal(v)
	}
	return out
}

func flattenStringMap(src map[string]int) map[string]float64 {
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = fromDcal(v)
	}
	return out
}

func unflattenStringMap(src map[string]float64) map[string]int {
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = toDcal(v)
	}
	return out
}

// MarshalJSON encodes t per the spec §6 parameter-file schema.
func (t *Table) MarshalJSON() ([]byte, error) {
	doc := jsonDoc{
		Material:             t.Material,
		DefaultWobblePairing: t.DefaultWobblePairing,
		DG: map[string][]float64{
			keyStack:           flatten2D(t.Stack),
			keyCoaxialStack:    flatten2D(t.CoaxialStack),
			keyInterior1x1:     flattenND4(t.Interior1x1),
			keyInterior2x1:     flattenND5(t.Interior2x1),
			keyInterior2x2:     flattenND6(t.Interior2x2),
			keyMismatchInt:     flatten3D(t.MismatchInterior),
			keyMismatch1xn:     flatten3D(t.Mismatch1xnInterior),
			keyMismatch2x3:     flatten3D(t.Mismatch2x3Interior),
			keyMismatchHairpin: flatten3D(t.MismatchHairpin),
			keyMismatchMulti:   flatten3D(t.MismatchMulti),
			keyMismatchExt:     flatten3D(t.MismatchExterior),
			keyDangle5:         flatten2D(t.Dangle5),
			keyDangle3:         flatten2D(t.Dangle3),
			keyHairpin:         flatten1D(t.Hairpin),
			keyBulge:           flatten1D(t.Bulge),
			keyInteriorLoop:    flatten1D(t.InteriorLoop),
			keyNinio:           flatten1D(t.Ninio),
		},
		TriLoop:   flattenStringMap(t.TriLoop),
		TetraLoop: flattenStringMap(t.TetraLoop),
		HexaLoop:  flattenStringMap(t.HexaLoop),
		Scalars: map[string]float64{
			"multi_loop_init":     fromDcal(t.MultiLoopInit),
			"multi_loop_pair":     fromDcal(t.MultiLoopPair),
			"multi_loop_base":     fromDcal(t.MultiLoopBase),
			"terminal_au_penalty": fromDcal(t.TerminalAUPenalty),
			"join_penalty":        fromDcal(t.JoinPenalty),
			"max_ninio":           fromDcal(t.MaxNinio),
			"log_loop_penalty":    t.LogLoopPenalty / dcalPerKcal,
			"measured_at_celsius": t.measuredAtCelsius,
		},
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes per the spec §6 schema, reversing MarshalJSON.
func (t *Table) UnmarshalJSON(data []byte) error {
	var doc jsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("energy_params: decoding table: %w", err)
	}
	*t = *newEmptyTable()
	t.Material = doc.Material
	t.DefaultWobblePairing = doc.DefaultWobblePairing

	get := func(key string) []float64 {
		v, ok := doc.DG[key]
		if !ok {
			return nil
		}
		return v
	}
	t.Stack = unflatten2D(get(keyStack), 7, 7)
	t.CoaxialStack = unflatten2D(get(keyCoaxialStack), 7, 7)
	t.Interior1x1 = unflattenND4(get(keyInterior1x1), 7, 7, 4, 4)
	t.Interior2x1 = unflattenND5(get(keyInterior2x1), 7, 7, 4, 4, 4)
	t.Interior2x2 = unflattenND6(get(keyInterior2x2), 7, 7, 4, 4, 4, 4)
	t.MismatchInterior = unflatten3D(get(keyMismatchInt), 7, 4, 4)
	t.Mismatch1xnInterior = unflatten3D(get(keyMismatch1xn), 7, 4, 4)
	t.Mismatch2x3Interior = unflatten3D(get(keyMismatch2x3), 7, 4, 4)
	t.MismatchHairpin = unflatten3D(get(keyMismatchHairpin), 7, 4, 4)
	t.MismatchMulti = unflatten3D(get(keyMismatchMulti), 7, 4, 4)
	t.MismatchExterior = unflatten3D(get(keyMismatchExt), 7, 4, 4)
	t.Dangle5 = unflatten2D(get(keyDangle5), 7, 4)
	t.Dangle3 = unflatten2D(get(keyDangle3), 7, 4)
	t.Hairpin = unflatten1D(get(keyHairpin))
	t.Bulge = unflatten1D(get(keyBulge))
	t.InteriorLoop = unflatten1D(get(keyInteriorLoop))
	t.Ninio = unflatten1D(get(keyNinio))
	t.TriLoop = unflattenStringMap(doc.TriLoop)
	t.TetraLoop = unflattenStringMap(doc.TetraLoop)
	t.HexaLoop = unflattenStringMap(doc.HexaLoop)

	t.MultiLoopInit = toDcal(doc.Scalars["multi_loop_init"])
	t.MultiLoopPair = toDcal(doc.Scalars["multi_loop_pair"])
	t.MultiLoopBase = toDcal(doc.Scalars["multi_loop_base"])
	t.TerminalAUPenalty = toDcal(doc.Scalars["terminal_au_penalty"])
	t.JoinPenalty = toDcal(doc.Scalars["join_penalty"])
	t.MaxNinio = toDcal(doc.Scalars["max_ninio"])
	// Rounded to 1e-6 deca-cal/mol so the kcal/mol value MarshalJSON wrote
	// converts back to the same float64 (107.9/100*100 alone gives
	// 107.89999999999999).
	t.LogLoopPenalty = math.Round(doc.Scalars["log_loop_penalty"]*dcalPerKcal*1e6) / 1e6
	t.measuredAtCelsius = doc.Scalars["measured_at_celsius"]
	return nil
}

func flattenND4(src [][][][]int) []float64 {
	out := make([]float64, 0)
	for _, a := range src {
		for _, b := range a {
			for _, c := range b {
				for _, v := range c {
					out = append(out, fromDcal(v))
				}
			}
		}
	}
	return out
}

func unflattenND4(flat []float64, a, b, c, d int) [][][][]int {
	out := make4D(a, b, c, d)
	idx := 0
	for i := 0; i < a; i++ {
		for j := 0; j < b; j++ {
			for k := 0; k < c; k++ {
				for l := 0; l < d; l++ {
					out[i][j][k][l] = toDcal(flat[idx])
					idx++
				}
			}
		}
	}
	return out
}

func flattenND5(src [][][][][]int) []float64 {
	out := make([]float64, 0)
	for _, a := range src {
		out = append(out, flattenND4(a)...)
	}
	return out
}

func unflattenND5(flat []float64, a, b, c, d, e int) [][][][][]int {
	out := make5D(a, b, c, d, e)
	per := b * c * d * e
	for i := 0; i < a; i++ {
		out[i] = unflattenND4(flat[i*per:(i+1)*per], b, c, d, e)
	}
	return out
}

func flattenND6(src [][][][][][]int) []float64 {
	out := make([]float64, 0)
	for _, a := range src {
		out = append(out, flattenND5(a)...)
	}
	return out
}

func unflattenND6(flat []float64, a, b, c, d, e, f int) [][][][][][]int {
	out := make6D(a, b, c, d, e, f)
	per := b * c * d * e * f
	for i := 0; i < a; i++ {
		out[i] = unflattenND5(flat[i*per:(i+1)*per], b, c, d, e, f)
	}
	return out
}
