// Package chain is the EVM deployment action: it loads compiled contract
// artifacts, encodes constructor arguments, and submits and confirms
// contract-creation transactions through go-ethereum.
//
// Deployer.Deploy has the shape of executor.DeployFunc. The network endpoint
// and signing key are injected through Config when the Deployer is built and
// validated for presence there; nothing is read from the environment.
package chain
