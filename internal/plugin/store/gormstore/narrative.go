package gormstore

import (
	"fmt"
	"strconv"
)

// Narrative texts are product copy, kept as literal Portuguese templates.
func narrativeGroupCreated(creator, group string) string {
	return fmt.Sprintf("'%s' criou o grupo '%s'.", creator, group)
}

func narrativeConversationStarted(requester, other string) string {
	return fmt.Sprintf("'%s' iniciou uma conversa com '%s'.", requester, other)
}

func narrativeConversationResumed(requester, other string) string {
	return fmt.Sprintf("'%s' voltou à conversa com '%s'.", requester, other)
}

func narrativeGroupRenamed(user, name string) string {
	return fmt.Sprintf("'%s' alterou o nome do grupo para '%s'.", user, name)
}

func narrativeGroupDeleted(name string) string {
	return fmt.Sprintf("Grupo '%s' deletado completamente.", name)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
