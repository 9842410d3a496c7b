package ost

// NodeIDType is the 5-bit type tag packed into the low bits of a node id,
// identifying what kind of object a node represents.
type NodeIDType uint8

const (
	NodeNormalFolder      NodeIDType = 0x02
	NodeSearchFolder      NodeIDType = 0x03
	NodeNormalMessage     NodeIDType = 0x04
	NodeAttachment        NodeIDType = 0x05
	NodeSearchUpdateQueue NodeIDType = 0x06
	NodeSearchCriteria    NodeIDType = 0x07
	NodeFolderAssocInfo   NodeIDType = 0x08
	NodeContentsTable     NodeIDType = 0x09
	NodeAttachmentTable   NodeIDType = 0x0A
	NodeRecipientTable    NodeIDType = 0x0B
	NodeSearchContentsTbl NodeIDType = 0x0C
	NodeHierarchyTable    NodeIDType = 0x0D
	NodeFAIContentsTable  NodeIDType = 0x0E
	NodeNormalFolderMsgs  NodeIDType = 0x0F
	NodeInternal          NodeIDType = 0x01
)

// NodeType extracts the 5-bit type tag from a node id.
func NodeType(nid uint32) NodeIDType { return NodeIDType(nid & 0x1F) }

// NodeFamily extracts the 27-bit numeric part shared by a folder/message
// and its associated tables (hierarchy, contents, FAI, recipients,
// attachments all share this value with their owning node).
func NodeFamily(nid uint32) uint32 { return nid >> 5 }
