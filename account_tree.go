package main

import "sort"

// AccountNode is an account with its resolved children and hierarchy level.
type AccountNode struct {
	Account
	Level    int            `json:"level"`
	Children []*AccountNode `json:"children"`
}

// BuildAccountTree arranges a flat account list into a forest. An account is
// attached under its declared parent only when the parent is present in the
// set, is of a parent-capable type, allows the child's type, and the link
// introduces no cycle. Accounts failing any of these conditions become roots:
// the tree never silently drops a node.
func BuildAccountTree(accounts []Account) []*AccountNode {
	nodes := make(map[uint]*AccountNode, len(accounts))
	for _, account := range accounts {
		nodes[account.ID] = &AccountNode{
			Account: account,
			Level:   AccountLevel(account.Code),
		}
	}

	var roots []*AccountNode
	for _, account := range accounts {
		node := nodes[account.ID]
		parent := resolveParent(nodes, account)
		if parent == nil {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortNodes(roots)
	for _, node := range nodes {
		sortNodes(node.Children)
	}
	return roots
}

// resolveParent returns the node the account attaches under, or nil when the
// account must become a root.
func resolveParent(nodes map[uint]*AccountNode, account Account) *AccountNode {
	if account.ParentID == nil {
		return nil
	}
	parent, ok := nodes[*account.ParentID]
	if !ok {
		return nil
	}
	if !parent.Type.CanHaveChildren() || !parent.Type.AllowsChild(account.Type) {
		return nil
	}
	if introducesCycle(nodes, account.ID, *account.ParentID) {
		return nil
	}
	return parent
}

// introducesCycle walks the ancestor chain from the proposed parent. Reaching
// the account itself, or revisiting any node, means a cycle.
func introducesCycle(nodes map[uint]*AccountNode, accountID, parentID uint) bool {
	visited := map[uint]bool{accountID: true}
	current := parentID
	for {
		if visited[current] {
			return true
		}
		visited[current] = true

		node, ok := nodes[current]
		if !ok || node.ParentID == nil {
			return false
		}
		current = *node.ParentID
	}
}

func sortNodes(nodes []*AccountNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Code != nodes[j].Code {
			return nodes[i].Code < nodes[j].Code
		}
		return nodes[i].Name < nodes[j].Name
	})
}
