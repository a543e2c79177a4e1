// Triad checks that a specification, its program and its tests agree by
// asking several independent AI agents and arbitrating their findings.
//
// Agents run in parallel; an agent that is unavailable, slow or returns
// garbage is reported in the health summary without failing the review.
// The designated arbiter classifies the findings; when it is unavailable a
// deterministic agreement count decides instead.
//
// Usage:
//
//	triad review --spec-dir docs/specs/order --program-dir src --test-dir tests
//	triad review ... --models chatgpt,qwen --check program-test --format sarif --out triad.sarif
//	triad agents --probe              # show agents, backends and availability
//	triad config init                 # write a default triad.yaml
//	triad config set agents.qwen.enabled false
//	triad cache stats
//
// The exit code is 1 when any error-level issue is reported, so triad can
// gate CI.
package main
