package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/specialistvlad/deploygrid/internal/fsutil"
)

// Artifact is a compiled contract: its ABI and creation bytecode.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
	Path     string
}

// artifactFile covers both the Hardhat and the Foundry artifact layout.
type artifactFile struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     bytecodeField   `json:"bytecode"`
}

// bytecodeField accepts "0x..." (Hardhat) or {"object": "0x..."} (Foundry).
type bytecodeField string

func (b *bytecodeField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = bytecodeField(s)
		return nil
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("bytecode must be a hex string or an object with an \"object\" field")
	}
	*b = bytecodeField(obj.Object)
	return nil
}

// ArtifactNotFoundError reports a contract with no loaded artifact.
type ArtifactNotFoundError struct {
	Contract string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("no artifact found for contract %q", e.Contract)
}

// Artifacts indexes artifacts by contract name.
type Artifacts struct {
	byName map[string]*Artifact
	// ambiguous holds the paths of names compiled from several sources.
	ambiguous map[string][]string
}

// NewArtifacts indexes the given artifacts.
func NewArtifacts(list ...*Artifact) *Artifacts {
	a := &Artifacts{
		byName:    make(map[string]*Artifact, len(list)),
		ambiguous: make(map[string][]string),
	}
	for _, art := range list {
		a.add(art)
	}
	return a
}

func (a *Artifacts) add(art *Artifact) {
	if paths, ok := a.ambiguous[art.Name]; ok {
		a.ambiguous[art.Name] = append(paths, art.Path)
		return
	}
	if prev, ok := a.byName[art.Name]; ok {
		delete(a.byName, art.Name)
		a.ambiguous[art.Name] = []string{prev.Path, art.Path}
		return
	}
	a.byName[art.Name] = art
}

// LoadArtifacts reads every *.json artifact under dir. Hardhat debug files
// (*.dbg.json) and JSON files without ABI and bytecode are skipped. A name
// compiled from several sources can not be looked up.
func LoadArtifacts(dir string) (*Artifacts, error) {
	files, err := fsutil.FindFilesByExtension(dir, ".json")
	if err != nil {
		return nil, fmt.Errorf("find artifacts in %s: %w", dir, err)
	}

	a := NewArtifacts()
	for _, file := range files {
		if strings.HasSuffix(file, ".dbg.json") {
			continue
		}
		art, err := ParseArtifact(file)
		if err != nil {
			return nil, err
		}
		if art == nil {
			continue
		}
		a.add(art)
	}
	return a, nil
}

// ParseArtifact reads one artifact file. It returns nil, nil for JSON files
// that are not contract artifacts or have no creation bytecode (interfaces).
func ParseArtifact(path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	var file artifactFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	if len(file.ABI) == 0 || file.Bytecode == "" || file.Bytecode == "0x" {
		return nil, nil
	}

	parsed, err := abi.JSON(bytes.NewReader(file.ABI))
	if err != nil {
		return nil, fmt.Errorf("parse ABI in %s: %w", path, err)
	}
	code, err := hexutil.Decode(string(file.Bytecode))
	if err != nil {
		if strings.Contains(string(file.Bytecode), "__") {
			return nil, fmt.Errorf("artifact %s has unlinked library references", path)
		}
		return nil, fmt.Errorf("decode bytecode in %s: %w", path, err)
	}

	name := file.ContractName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return &Artifact{Name: name, ABI: parsed, Bytecode: code, Path: path}, nil
}

// Get returns the artifact for contract.
func (a *Artifacts) Get(contract string) (*Artifact, error) {
	if paths, ok := a.ambiguous[contract]; ok {
		return nil, fmt.Errorf("contract %q is ambiguous, found in %s", contract, strings.Join(paths, ", "))
	}
	art, ok := a.byName[contract]
	if !ok {
		return nil, &ArtifactNotFoundError{Contract: contract}
	}
	return art, nil
}

// Len returns the number of loaded artifacts.
func (a *Artifacts) Len() int {
	return len(a.byName)
}

// DeployData returns the creation payload: bytecode followed by the ABI
// encoded constructor arguments.
func (art *Artifact) DeployData(args []any) ([]byte, error) {
	coerced, err := coerceArgs(art.ABI.Constructor.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("contract %s: %w", art.Name, err)
	}
	packed, err := art.ABI.Pack("", coerced...)
	if err != nil {
		return nil, fmt.Errorf("contract %s: pack constructor: %w", art.Name, err)
	}
	data := make([]byte, 0, len(art.Bytecode)+len(packed))
	data = append(data, art.Bytecode...)
	return append(data, packed...), nil
}
