package domain

import (
	"path"
	"strings"
)

// Style enumerates the art styles accepted by the generation service.
type Style string

const (
	StyleRealistic Style = "realistic"
	StyleCartoon   Style = "cartoon"
	StyleLowPoly   Style = "low-poly"
	StyleSculpture Style = "sculpture"
	StylePBR       Style = "pbr"
	StyleSciFi     Style = "scifi"
	StyleHorror    Style = "horror"
)

// ArtifactExtension is the file extension of every downloaded model.
const ArtifactExtension = ".glb"

// JobSpec is one catalog entry. It is created once and never mutated.
type JobSpec struct {
	AssetID          string `json:"asset_id" yaml:"id" validate:"required,assetid"`
	Prompt           string `json:"prompt" yaml:"prompt" validate:"required,max=600"`
	Style            Style  `json:"style" yaml:"style" validate:"required,oneof=realistic cartoon low-poly sculpture pbr scifi horror"`
	TargetComplexity int    `json:"target_polycount" yaml:"target_polycount" validate:"gt=0,lte=300000"`
	NegativePrompt   string `json:"negative_prompt,omitempty" yaml:"negative_prompt,omitempty"`
}

// Category returns the grouping segment of the asset identifier.
func (s JobSpec) Category() string {
	dir := path.Dir(s.AssetID)
	if dir == "." {
		return ""
	}
	return dir
}

// Name returns the final segment of the asset identifier.
func (s JobSpec) Name() string {
	return path.Base(s.AssetID)
}

// ArtifactKey derives the storage key for the spec's model file. The mapping
// is deterministic so reruns land on the same path.
func (s JobSpec) ArtifactKey() string {
	return ArtifactKey(s.AssetID)
}

// ArtifactKey derives the storage key for an asset identifier.
func ArtifactKey(assetID string) string {
	return strings.Trim(assetID, "/") + ArtifactExtension
}

// JobHandle links a catalog entry to the job the remote service created for it.
type JobHandle struct {
	AssetID     string `json:"asset_id"`
	RemoteJobID string `json:"job_id"`
}
