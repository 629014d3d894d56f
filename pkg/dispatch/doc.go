// Package dispatch sends a campaign to every row of a recipient table.
//
// Rows are processed strictly in order with one outstanding send at a time.
// A failure for one recipient is recorded in the Report and the run moves on;
// only a missing attachment, a failed re-authentication or cancellation stop
// it early. When the provider rejects the credential the Dispatcher forces a
// refresh through its Reauthorizer and retries that recipient once.
//
//	d := dispatch.New(mailer.NewBuilder(store), gmailSender,
//		dispatch.WithReauthorizer(session),
//		dispatch.WithLogger(log),
//	)
//	report, err := d.SendBulk(ctx, recipients, dispatch.Campaign{
//		From:       "me",
//		Template:   campaign,
//		Attachment: "brochure.pdf",
//	})
package dispatch
