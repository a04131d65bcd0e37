package editor

import (
	"strings"
)

// BuildEraseInstruction composes the prompt sent next to the source image and
// its mask. The first inline image is the photo, the second is the mask.
func BuildEraseInstruction(instruction, locale string) string {
	parts := []string{
		"Task: remove objects from a photo using a mask.",
		"The first image is the original photo. The second image is a mask of the same size.",
		"Opaque black pixels in the mask mark the region to erase; transparent pixels must stay exactly as they are.",
		"Fill the erased region with a plausible continuation of the surrounding background, matching lighting, texture, perspective and grain so no trace of the removed content remains.",
	}
	if extra := strings.TrimSpace(instruction); extra != "" {
		parts = append(parts, "Additional instructions: "+extra)
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(locale)), "tr") {
		parts = append(parts, "The user writes in Turkish; interpret any additional instructions accordingly.")
	}
	parts = append(parts, "Return a single edited image at the original resolution. Do not crop, resize or add borders.")
	return strings.Join(parts, "\n")
}
