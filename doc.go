// Package novelreview analyzes manuscript drafts through a graph of
// LLM-backed analysis stages.
//
// The root package holds the provider-neutral chat types shared by the
// analyzer and the provider adapters: [Message], [Response], request
// [Option] values and the categorized [Error] type used for retry decisions.
//
// # Basic Usage
//
// Build a chat client, wrap it in an analyzer and run the pipeline:
//
//	c := client.New(client.Config{
//	    Provider: novelreview.ProviderOpenAI,
//	    APIKeys:  client.APIKeys{OpenAI: os.Getenv("OPENAI_API_KEY")},
//	})
//
//	p, err := pipeline.New(analysis.New(c))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	state, err := p.Run(ctx, manuscript)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(state.Summary.FullSummary)
//
// # Inspecting Results
//
// A run always returns a state. Fields left nil were either skipped by
// routing or failed; failures are listed in state.Errors:
//
//	for _, e := range state.Errors {
//	    fmt.Printf("%s failed: %s\n", e.Node, e.Error)
//	}
//
// # Higher-Level Packages
//
//   - [github.com/spetersoncode/novelreview/workflow]: generic state graph engine
//   - [github.com/spetersoncode/novelreview/pipeline]: the manuscript analysis graph
//   - [github.com/spetersoncode/novelreview/analysis]: LLM-backed analyzer
//   - [github.com/spetersoncode/novelreview/client]: provider client with retry and rate limiting
package novelreview
