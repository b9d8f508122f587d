// Package prompt builds the chat messages the explain command sends to a model.
//
// The model never sees the raw log. It receives the rendered cluster report,
// where every line is one distinct pattern prefixed by its occurrence count,
// plus notes about what was dropped before clustering.
//
// # Prompt types
//
//   - [TypeSummarize]: overview of what the patterns say about the system
//   - [TypeRootCause]: evidence-based diagnosis starting from the error clusters
//   - [TypeQuestion]: answer a free-form user question
//
// # Usage
//
//	messages, err := prompt.Build(prompt.TypeSummarize, prompt.BuildOptions{
//	    Summary:     reportText,
//	    Source:      "app.log",
//	    NoiseHidden: true,
//	})
//	if err != nil {
//	    return err
//	}
//	// Pass messages to llm.Provider.Stream or Complete.
package prompt
