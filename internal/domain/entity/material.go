package entity

import (
	"strings"
	"time"
)

// Category clasifica los materiales.
type Category string

const (
	CategoryDrug          Category = "drug"           // 薬品
	CategoryEquipment     Category = "equipment"      // 器材
	CategoryConsumable    Category = "consumable"     // 消耗品
	CategoryMedicalDevice Category = "medical_device" // 医療機器
	CategoryOther         Category = "other"          // その他
)

// Categories en el orden en que se muestran.
var Categories = []Category{
	CategoryDrug, CategoryEquipment, CategoryConsumable, CategoryMedicalDevice, CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryDrug:          "薬品",
	CategoryEquipment:     "器材",
	CategoryConsumable:    "消耗品",
	CategoryMedicalDevice: "医療機器",
	CategoryOther:         "その他",
}

// Label devuelve la etiqueta que usa el personal de la estación.
func (c Category) Label() string { return categoryLabels[c] }

// Valid indica si la categoría es reconocida.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory acepta el código ("drug") o la etiqueta japonesa ("薬品").
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	c := Category(strings.ToLower(s))
	if c.Valid() {
		return c, true
	}
	for code, label := range categoryLabels {
		if label == s {
			return code, true
		}
	}
	return "", false
}

// Unit es la unidad de conteo del material.
type Unit string

const (
	UnitPiece  Unit = "piece"  // 個
	UnitBox    Unit = "box"    // 箱
	UnitBottle Unit = "bottle" // 本
	UnitSet    Unit = "set"    // セット
	UnitPack   Unit = "pack"   // パック
	UnitLiter  Unit = "liter"  // L
)

// Units en el orden en que se muestran.
var Units = []Unit{UnitPiece, UnitBox, UnitBottle, UnitSet, UnitPack, UnitLiter}

var unitLabels = map[Unit]string{
	UnitPiece:  "個",
	UnitBox:    "箱",
	UnitBottle: "本",
	UnitSet:    "セット",
	UnitPack:   "パック",
	UnitLiter:  "L",
}

func (u Unit) Label() string { return unitLabels[u] }

func (u Unit) Valid() bool {
	_, ok := unitLabels[u]
	return ok
}

// ParseUnit acepta el código ("box") o la etiqueta japonesa ("箱").
func ParseUnit(s string) (Unit, bool) {
	s = strings.TrimSpace(s)
	u := Unit(strings.ToLower(s))
	if u.Valid() {
		return u, true
	}
	for code, label := range unitLabels {
		if label == s {
			return code, true
		}
	}
	return "", false
}

// Material representa un ítem inventariable (fármaco, equipo, consumible...).
// CurrentQuantity es autoritativo y solo lo modifica el motor de movimientos;
// InitialQuantity es el valor sembrado al crear y sirve para reconciliar contra el libro.
type Material struct {
	ID              string
	Name            string
	Category        Category
	Unit            Unit
	CurrentQuantity int64
	MinQuantity     int64
	InitialQuantity int64
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsShort indica si el material está por debajo de su mínimo.
func (m *Material) IsShort() bool {
	return m.CurrentQuantity < m.MinQuantity
}

// Shortage devuelve cuánto falta para llegar al mínimo (0 si no falta).
func (m *Material) Shortage() int64 {
	if !m.IsShort() {
		return 0
	}
	return m.MinQuantity - m.CurrentQuantity
}
