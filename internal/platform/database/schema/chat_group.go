package schema

// ChatGroupTable represents the 'chat.chatgroup' table
type ChatGroupTable struct {
	Table     string
	ID        string
	Name      string
	Slug      string
	OwnerID   string
	CreatedAt string
}

// ChatGroup is the schema definition for chat.chatgroup
var ChatGroup = ChatGroupTable{
	Table:     "chat.chatgroup",
	ID:        "id",
	Name:      "name",
	Slug:      "slug",
	OwnerID:   "ownerid",
	CreatedAt: "createdat",
}

// GroupAdminTable represents the 'chat.groupadmin' table
type GroupAdminTable struct {
	Table     string
	Seq       string
	GroupID   string
	UserID    string
	GrantedAt string
}

// GroupAdmin is the schema definition for chat.groupadmin.
// Seq preserves grant order.
var GroupAdmin = GroupAdminTable{
	Table:     "chat.groupadmin",
	Seq:       "seq",
	GroupID:   "groupid",
	UserID:    "userid",
	GrantedAt: "grantedat",
}

// GroupMemberTable represents the 'chat.groupmember' table
type GroupMemberTable struct {
	Table   string
	Seq     string
	GroupID string
	UserID  string
	AddedAt string
}

// GroupMember is the schema definition for chat.groupmember
var GroupMember = GroupMemberTable{
	Table:   "chat.groupmember",
	Seq:     "seq",
	GroupID: "groupid",
	UserID:  "userid",
	AddedAt: "addedat",
}
