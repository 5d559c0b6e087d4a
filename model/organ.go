package model

import (
	"fmt"
	"strings"
)

// Organ identifies one of the organs a report covers.
// The value doubles as the corpus file stem (liver.md, kidney.md, gallbladder.md).
type Organ string

const (
	OrganLiver       Organ = "liver"
	OrganKidney      Organ = "kidney"
	OrganGallBladder Organ = "gallbladder"
)

type organInfo struct {
	displayName string
	findingKey  string
}

var organTable = map[Organ]organInfo{
	OrganLiver:       {displayName: "Liver", findingKey: "abnormal_liver"},
	OrganKidney:      {displayName: "Kidney", findingKey: "abnormal_kidney"},
	OrganGallBladder: {displayName: "GallBladder", findingKey: "abnormal_gallbladder"},
}

// Organs returns all organs in report order
func Organs() []Organ {
	return []Organ{OrganLiver, OrganKidney, OrganGallBladder}
}

// ParseOrgan matches a corpus key exactly, without case folding
func ParseOrgan(key string) (Organ, error) {
	organ := Organ(key)
	if _, ok := organTable[organ]; !ok {
		return "", fmt.Errorf("unknown organ %q (expected one of %s)", key, strings.Join(OrganKeys(), ", "))
	}
	return organ, nil
}

// OrganKeys returns the organ keys in report order
func OrganKeys() []string {
	keys := make([]string, 0, len(organTable))
	for _, o := range Organs() {
		keys = append(keys, string(o))
	}
	return keys
}

func (o Organ) Valid() bool {
	_, ok := organTable[o]
	return ok
}

// DisplayName is the organ name used in prompts and schema descriptions
func (o Organ) DisplayName() string {
	if info, ok := organTable[o]; ok {
		return info.displayName
	}
	return string(o)
}

// FindingKey is the field name of the organ list in the extraction schema
func (o Organ) FindingKey() string {
	if info, ok := organTable[o]; ok {
		return info.findingKey
	}
	return "abnormal_" + string(o)
}

// FindingDescription is the extraction field description for the organ
func (o Organ) FindingDescription() string {
	name := o.DisplayName()
	return fmt.Sprintf("Abnormal finding for the %s. If findings about %s is not provided or %s is normal, return null.", name, name, name)
}
