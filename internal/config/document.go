package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultScope is the only OAuth scope requested until the operator edits
// the config. gmail.modify covers read, label changes, trash and send.
const DefaultScope = "https://www.googleapis.com/auth/gmail.modify"

// DefaultAccountName names the account used when the config does not say
// otherwise.
const DefaultAccountName = "default"

const defaultConfigYAML = `# gmailagent configuration
gmail:
  scopes:
    - https://www.googleapis.com/auth/gmail.modify
  default_account: default
  accounts: {}
`

// Account is one configured Gmail account.
type Account struct {
	Name      string
	TokenPath string // as written in the config; may be relative to the base dir
	Email     string // cached after first auth, empty before
}

// Document is a parsed config file. It wraps the yaml node tree so edits
// touch only the mutated values and hand-written comments survive a save.
type Document struct {
	root *yaml.Node
}

// Parse decodes config bytes into a document.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if root.Kind == 0 {
		root = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{mappingNode()},
		}
	}
	return &Document{root: &root}, nil
}

// DefaultDocument returns the document substituted when no config file
// exists: the gmail.modify scope, "default" as the default account, and no
// configured accounts.
func DefaultDocument() *Document {
	doc, err := Parse([]byte(defaultConfigYAML))
	if err != nil {
		panic(fmt.Sprintf("default config does not parse: %v", err))
	}
	return doc
}

// Encode renders the document back to YAML with two-space indentation.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// Scopes returns gmail.scopes, falling back to the default scope when the
// config does not list any.
func (d *Document) Scopes() []string {
	seq := mappingValue(d.gmailSection(), "scopes")
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return []string{DefaultScope}
	}
	out := make([]string, 0, len(seq.Content))
	for _, n := range seq.Content {
		if n.Value != "" {
			out = append(out, n.Value)
		}
	}
	if len(out) == 0 {
		return []string{DefaultScope}
	}
	return out
}

// DefaultAccount returns gmail.default_account, falling back to "default".
func (d *Document) DefaultAccount() string {
	if n := mappingValue(d.gmailSection(), "default_account"); n != nil && n.Value != "" {
		return n.Value
	}
	return DefaultAccountName
}

// DefaultQuery returns gmail.default_query, or empty when unset.
func (d *Document) DefaultQuery() string {
	if n := mappingValue(d.gmailSection(), "default_query"); n != nil {
		return n.Value
	}
	return ""
}

// HasAccount reports whether the named account is configured.
func (d *Document) HasAccount(name string) bool {
	return mappingValue(d.accountsSection(), name) != nil
}

// Account returns the named account entry.
func (d *Document) Account(name string) (Account, bool) {
	entry := mappingValue(d.accountsSection(), name)
	if entry == nil {
		return Account{}, false
	}
	return accountFromNode(name, entry), true
}

// Accounts returns all configured accounts in file order.
func (d *Document) Accounts() []Account {
	acc := d.accountsSection()
	if acc == nil {
		return nil
	}
	out := make([]Account, 0, len(acc.Content)/2)
	for i := 0; i+1 < len(acc.Content); i += 2 {
		out = append(out, accountFromNode(acc.Content[i].Value, acc.Content[i+1]))
	}
	return out
}

// EnsureAccount adds the account with the conventional token path when it is
// not configured yet. Returns true when this call created the entry.
func (d *Document) EnsureAccount(name string) bool {
	acc := d.ensureAccountsSection()
	if mappingValue(acc, name) != nil {
		return false
	}
	entry := mappingNode()
	setMappingValue(entry, "token_path", scalarNode("tokens/"+name+".json"))
	acc.Style = 0
	setMappingValue(acc, name, entry)
	return true
}

// SetDefaultAccount points gmail.default_account at name. Returns false when
// the account is not configured.
func (d *Document) SetDefaultAccount(name string) bool {
	if !d.HasAccount(name) {
		return false
	}
	sec := d.ensureGmailSection()
	if n := mappingValue(sec, "default_account"); n != nil {
		setScalar(n, name)
		return true
	}
	setMappingValue(sec, "default_account", scalarNode(name))
	return true
}

// RemoveAccount deletes the account entry. Returns false when it was not
// present.
func (d *Document) RemoveAccount(name string) bool {
	return removeMappingKey(d.accountsSection(), name)
}

// RecordEmail caches the authenticated address, creating the account entry
// when missing. Returns false when the stored value already matches.
func (d *Document) RecordEmail(name, email string) bool {
	acc := d.ensureAccountsSection()
	entry := mappingValue(acc, name)
	if entry == nil || entry.Kind != yaml.MappingNode {
		entry = mappingNode()
		acc.Style = 0
		setMappingValue(acc, name, entry)
	}
	if n := mappingValue(entry, "email"); n != nil {
		if n.Value == email {
			return false
		}
		setScalar(n, email)
		return true
	}
	setMappingValue(entry, "email", scalarNode(email))
	return true
}

func (d *Document) content() *yaml.Node {
	if d.root == nil || len(d.root.Content) == 0 {
		return nil
	}
	return d.root.Content[0]
}

func (d *Document) gmailSection() *yaml.Node {
	sec := mappingValue(d.content(), "gmail")
	if sec == nil || sec.Kind != yaml.MappingNode {
		return nil
	}
	return sec
}

func (d *Document) ensureGmailSection() *yaml.Node {
	top := d.content()
	if sec := mappingValue(top, "gmail"); sec != nil && sec.Kind == yaml.MappingNode {
		return sec
	}
	sec := mappingNode()
	setMappingValue(top, "gmail", sec)
	return sec
}

func (d *Document) accountsSection() *yaml.Node {
	acc := mappingValue(d.gmailSection(), "accounts")
	if acc == nil || acc.Kind != yaml.MappingNode {
		return nil
	}
	return acc
}

func (d *Document) ensureAccountsSection() *yaml.Node {
	sec := d.ensureGmailSection()
	if acc := mappingValue(sec, "accounts"); acc != nil && acc.Kind == yaml.MappingNode {
		return acc
	}
	acc := mappingNode()
	setMappingValue(sec, "accounts", acc)
	return acc
}

func accountFromNode(name string, entry *yaml.Node) Account {
	a := Account{Name: name, TokenPath: "tokens/" + name + ".json"}
	if n := mappingValue(entry, "token_path"); n != nil && n.Value != "" {
		a.TokenPath = n.Value
	}
	if n := mappingValue(entry, "email"); n != nil {
		a.Email = n.Value
	}
	return a
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// setMappingValue replaces the value for key, appending the pair when absent.
func setMappingValue(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, scalarNode(key), value)
}

func removeMappingKey(m *yaml.Node, key string) bool {
	if m == nil || m.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return true
		}
	}
	return false
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// setScalar rewrites a scalar in place so quoting style and any attached
// comment survive.
func setScalar(n *yaml.Node, value string) {
	n.Kind = yaml.ScalarNode
	n.Tag = "!!str"
	n.Value = value
}
