package intent

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern tables for the fast classification stage. Tiers are evaluated
// in priority order; within a tier, rule order breaks ties.
var (
	navigatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)go to|jump to|navigate to|take me to|show me|find the`),
	}

	writePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(write|expand|continue|generate|create content|fill in|draft)\b`),
	}

	rewriteCoherencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(rewrite|update|change).*(coherent|consistent|flow|match)`),
		regexp.MustCompile(`(?i)make (it |this |them )?(all )?(coherent|consistent|flow)`),
	}

	improvePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(improve|enhance|refine|polish|make (it )?better|fix)\b`),
	}

	deletePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(delete|remove|discard|trash|get rid of)\b`),
	}

	answerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(what|who|where|when|why|how|can you|could you|tell me|explain)\b`),
		regexp.MustCompile(`\?$`),
	}

	openAndWritePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(write|expand|continue).*(in|for|on) (the |my )?`),
	}

	modifyStructurePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(add|insert|move|reorder|reorganize|restructure)`),
		regexp.MustCompile(`(?i)(new|another) (chapter|scene|act|section|part)`),
	}
)

// Structure creation only applies while the document panel is closed.
var structurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(create|start|begin|make|build|write)\b.*(novel|story|book|screenplay|script|podcast|report)`),
	regexp.MustCompile(`(?i)\b(novel|story|book|screenplay|script|podcast|report)\b.*(about|on|regarding)`),
	regexp.MustCompile(`(?i)^(a |the )?(new )?(novel|story|book|screenplay|script|podcast|report)`),
}

// Comparative, adversative, or conditional language that needs a model to
// untangle. Matching one of these is a deliberate escape to deep analysis.
var complexPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(like|similar to|based on|inspired by)`),
	regexp.MustCompile(`(?i)(but|however|although|except)`),
	regexp.MustCompile(`(?i)(if|when|unless|until)`),
}

var formatWordPattern = regexp.MustCompile(`(?i)\b(novel|story|book|screenplay|script|podcast|report)\b`)

func matchAny(patterns []*regexp.Regexp, message string) bool {
	for _, p := range patterns {
		if p.MatchString(message) {
			return true
		}
	}
	return false
}

// Classify runs the pattern stage. It is pure and synchronous: no I/O, no
// hidden state, identical output for identical input. The second return
// value is false when no tier matched and the deep stage should take over.
func Classify(message string, pctx Context) (Analysis, bool) {
	hasActiveSegment := pctx.ActiveSegment != nil

	// Priority 0: navigation, only while the document panel is open.
	if pctx.DocumentPanelOpen {
		if matchAny(navigatePatterns, message) {
			format := pctx.DocumentFormat
			if format == "" {
				format = "document"
			}
			return Analysis{
				Intent:          IntentNavigateSection,
				Confidence:      0.95,
				Reasoning:       fmt.Sprintf("User wants to navigate to a specific section within the currently open %s", format),
				SuggestedAction: fmt.Sprintf("Find and select the requested section: %q", message),
				RequiresContext: false,
				SuggestedModel:  "orchestrator",
			}, true
		}
	}

	// Priority 1: content operations, only with a selected segment.
	if hasActiveSegment {
		segmentName := pctx.ActiveSegment.Name
		if segmentName == "" {
			segmentName = "selected section"
		}

		if matchAny(writePatterns, message) {
			return Analysis{
				Intent:          IntentWriteContent,
				Confidence:      0.95,
				Reasoning:       fmt.Sprintf("User explicitly requested content generation for %q with keywords like \"write\", \"expand\", or \"continue\"", segmentName),
				SuggestedAction: fmt.Sprintf("Generate content for the selected section: %q", segmentName),
				RequiresContext: true,
				SuggestedModel:  "writer",
			}, true
		}

		if matchAny(rewriteCoherencePatterns, message) {
			return Analysis{
				Intent:          IntentRewriteWithCoherence,
				Confidence:      0.95,
				Reasoning:       fmt.Sprintf("User wants multi-section operation: modify %q and/or other sections (coherence/batch generation)", segmentName),
				SuggestedAction: "Analyze dependencies, write/rewrite sections, and ensure story consistency",
				RequiresContext: true,
				SuggestedModel:  "orchestrator",
			}, true
		}

		if matchAny(improvePatterns, message) {
			return Analysis{
				Intent:          IntentImproveContent,
				Confidence:      0.9,
				Reasoning:       fmt.Sprintf("User wants to improve existing content in %q", segmentName),
				SuggestedAction: fmt.Sprintf("Refine and enhance the content in: %q", segmentName),
				RequiresContext: true,
				SuggestedModel:  "editor",
			}, true
		}
	}

	// Priority 2: delete node.
	if matchAny(deletePatterns, message) {
		return Analysis{
			Intent:          IntentDeleteNode,
			Confidence:      0.9,
			Reasoning:       "User wants to delete/remove a canvas node",
			SuggestedAction: "Identify which node to delete and confirm with user",
			RequiresContext: false,
			SuggestedModel:  "orchestrator",
		}, true
	}

	// Priority 3: questions.
	if matchAny(answerPatterns, message) {
		return Analysis{
			Intent:          IntentAnswerQuestion,
			Confidence:      0.9,
			Reasoning:       "User is asking for explanation or information based on interrogative patterns",
			SuggestedAction: "Answer the user's question using orchestrator model in chat",
			RequiresContext: false,
			SuggestedModel:  "orchestrator",
		}, true
	}

	// Priority 4: open-and-write, only from the canvas view with canvas state.
	if !pctx.DocumentPanelOpen && !hasActiveSegment && pctx.Canvas != nil {
		if matchAny(openAndWritePatterns, message) {
			return Analysis{
				Intent:          IntentOpenAndWrite,
				Confidence:      0.95,
				Reasoning:       "User wants to write content in an existing canvas node - will auto-open document",
				SuggestedAction: "Open the referenced document and prepare for content writing",
				RequiresContext: false,
				SuggestedModel:  "orchestrator",
			}, true
		}
	}

	// Priority 5: structure creation, only from the canvas view.
	if !pctx.DocumentPanelOpen && !hasActiveSegment {
		if matchAny(structurePatterns, message) {
			entities := map[string]interface{}{}
			if word := formatWordPattern.FindString(message); word != "" {
				entities["documentFormat"] = strings.ToLower(word)
			}
			return Analysis{
				Intent:            IntentCreateStructure,
				Confidence:        0.9,
				Reasoning:         "User wants to create a new story structure from scratch (document panel is closed)",
				SuggestedAction:   "Generate a complete story structure using orchestrator model",
				RequiresContext:   false,
				SuggestedModel:    "orchestrator",
				ExtractedEntities: entities,
			}, true
		}
	}

	// Priority 6: structure modification.
	if matchAny(modifyStructurePatterns, message) {
		return Analysis{
			Intent:          IntentModifyStructure,
			Confidence:      0.85,
			Reasoning:       "User wants to modify the existing story structure",
			SuggestedAction: "Update the story structure based on user request",
			RequiresContext: false,
			SuggestedModel:  "orchestrator",
		}, true
	}

	// Complex phrasing is handed to the deep stage on purpose.
	if matchAny(complexPatterns, message) {
		return Analysis{}, false
	}

	return Analysis{}, false
}
