package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"portfolio-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validContact() ContactInput {
	return ContactInput{
		Name:    "Jane Roe",
		Email:   "  Jane@Example.COM ",
		Subject: "Project enquiry",
		Message: "Hello, I would like to hire you.",
	}
}

func TestContactSubmitStoresAndNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	contacts := &ContactService{Store: newTestStore(t), Notifier: notifier}
	ctx := context.Background()

	in := validContact()
	in.Message = "<script>alert(1)</script> please reply"
	receipt, err := contacts.Submit(ctx, in, "203.0.113.9", "curl/8")
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, "jane@example.com", receipt.Email)
	contacts.Wait()

	sent := notifier.contacts()
	require.Len(t, sent, 1)
	assert.Equal(t, receipt.ID, sent[0].ID)
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt; please reply", sent[0].Message)
	assert.Equal(t, "203.0.113.9", sent[0].IPAddress)

	stored, err := contacts.Get(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContactRead, stored.Status, "opening a new message marks it read")
	assert.Equal(t, "curl/8", stored.UserAgent)
}

func TestContactSubmitValidation(t *testing.T) {
	contacts := &ContactService{Store: newTestStore(t)}
	ctx := context.Background()

	short := validContact()
	short.Message = "Hi th"
	_, err := contacts.Submit(ctx, short, "", "")
	svcErr := requireKind(t, err, KindValidation)
	assert.Equal(t, "Message must be at least 10 characters", svcErr.Message)

	badEmail := validContact()
	badEmail.Email = "nobody"
	_, err = contacts.Submit(ctx, badEmail, "", "")
	svcErr = requireKind(t, err, KindValidation)
	assert.Equal(t, "Please provide a valid email", svcErr.Message)

	list, err := contacts.List(ctx, "", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), list.Total)
}

func TestContactNotificationFailureIsNotFatal(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	contacts := &ContactService{Store: newTestStore(t), Notifier: notifier}

	_, err := contacts.Submit(context.Background(), validContact(), "", "")
	require.NoError(t, err)
	contacts.Wait()
	assert.Len(t, notifier.contacts(), 1)
}

func TestContactListStatusAndDelete(t *testing.T) {
	contacts := &ContactService{Store: newTestStore(t)}
	ctx := context.Background()

	ids := []string{}
	for i := 0; i < 3; i++ {
		in := validContact()
		in.Subject = fmt.Sprintf("Subject %d", i)
		r, err := contacts.Submit(ctx, in, "", "")
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	replied, err := contacts.UpdateStatus(ctx, ids[0], ContactStatusInput{Status: models.ContactReplied})
	require.NoError(t, err)
	assert.Equal(t, models.ContactReplied, replied.Status)

	_, err = contacts.UpdateStatus(ctx, ids[0], ContactStatusInput{Status: "spam"})
	requireKind(t, err, KindValidation)

	newOnes, err := contacts.List(ctx, models.ContactNew, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), newOnes.Total)

	paged, err := contacts.List(ctx, "", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, paged.Pages)
	assert.Len(t, paged.Items, 1)

	// Already handled messages keep their status when opened.
	got, err := contacts.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.ContactReplied, got.Status)

	require.NoError(t, contacts.Delete(ctx, ids[1]))
	err = contacts.Delete(ctx, ids[1])
	svcErr := requireKind(t, err, KindNotFound)
	assert.Equal(t, "Contact not found with id of "+ids[1], svcErr.Message)
}
