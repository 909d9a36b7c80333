package jurassic2

// ModelDescription identifies a model by its Bedrock model ID.
type ModelDescription interface {
	ID() string
}

// ChatModel is a Jurassic-2 model available on Bedrock.
type ChatModel string

const (
	// AI21J2MidV1 is Jurassic-2 Mid.
	AI21J2MidV1 ChatModel = "ai21.j2-mid-v1"

	// AI21J2UltraV1 is Jurassic-2 Ultra.
	AI21J2UltraV1 ChatModel = "ai21.j2-ultra-v1"
)

// ID returns the Bedrock model ID.
func (m ChatModel) ID() string {
	return string(m)
}

// String returns the Bedrock model ID.
func (m ChatModel) String() string {
	return string(m)
}

// ChatModels returns the known Jurassic-2 models.
func ChatModels() []ChatModel {
	return []ChatModel{AI21J2MidV1, AI21J2UltraV1}
}
