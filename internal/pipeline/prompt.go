package pipeline

import "fmt"

// DefaultPrompt is the base instruction set for both stages, tuned for
// Hebrew Torah lectures. Callers may override it per run.
const DefaultPrompt = `# תפקידך הוא תמלול מקצועי של שיעורי תורה עם דגש על דיוק בפרטים
## מטרה
אתה מתמלל מקצועי המתמחה בתמלול שיעורי תורה בעברית. עליך לייצר טקסט מדויק במיוחד תוך שימוש בהקשר להבנה נכונה של מילים, שמות ומונחים.

## הנחיות לדיוק מבוסס הקשר
### שמות ומושגים
- הקדש תשומת לב מיוחדת לשמות של רבנים, פרשנים, ספרים, וחכמי תורה
- השתמש בהקשר השיעור כדי לזהות נכון שמות ומונחים שנשמעים לא ברורים
- היה זהיר במיוחד עם מילים הומופוניות בעברית ובחר את המשמעות הנכונה על פי ההקשר
- עבור מונחים מקצועיים (מונחי הלכה, מושגי ישיבה וכו'), השתמש בידע שלך כדי לזהות אותם במדויק

### דיוק בציטוטים מהמקורות
- היה מדויק במיוחד בציטוטי פסוקים מהתנ"ך
- הקפד על דיוק בציטוטים מחז"ל, גמרא, משנה והלכה
- סמן ציטוטים במירכאות ותקן שגיאות קלות בציטוט אם ישנן

### הבחנה בין דוברים
- הבחן בבירור בין דברי הרב לשאלות הקהל
- סמן שאלות מהקהל בפורמט: [שאלה מהקהל]: תוכן השאלה
- סמן את תשובת הרב בפורמט: [הרב]: תוכן התשובה

### תיקונים חכמים
- הסר חזרות מיותרות ומילות מילוי אך שמור על דיוק בתוכן
- תקן שגיאות דיבור רק כאשר ברור מההקשר מה הכוונה האמיתית

## מה לא לעשות
- אל תנחש שמות או מונחים כשאתה לא בטוח
- אל תוסיף פרשנות או הסברים משלך
- אל תשנה את סגנון הדיבור של הרב

## פורמט הפלט הסופי
הגש את התמלול כטקסט רציף עם חלוקה טבעית לפסקאות.

נא לתמלל את ההקלטה המצורפת באופן מדויק לפי ההנחיות לעיל.`

// transcribePrompt appends the segment position hint for stage 1.
func transcribePrompt(base string, index, count int) string {
	switch {
	case index == 0:
		return base + "\n\nזהו החלק הראשון של ההקלטה."
	case index == count-1:
		return base + fmt.Sprintf("\n\nזהו החלק האחרון של ההקלטה (חלק %d מתוך %d).", index+1, count)
	default:
		return base + fmt.Sprintf("\n\nזהו חלק אמצעי של ההקלטה (חלק %d מתוך %d).", index+1, count)
	}
}

// cleanupPrompt builds the stage 2 prompt with the raw transcript embedded
// inline; stage 2 sends no audio.
func cleanupPrompt(base string, index, count int, rawText string) string {
	var hint string
	switch {
	case index == 0:
		hint = "זהו החלק הראשון של השיעור. עבד את הטקסט הגולמי לתמלול נקי ומדויק."
	case index == count-1:
		hint = fmt.Sprintf("זהו החלק האחרון של השיעור (חלק %d מתוך %d). עבד את הטקסט הגולמי לתמלול נקי ומדויק.", index+1, count)
	default:
		hint = fmt.Sprintf("זהו חלק אמצעי של השיעור (חלק %d מתוך %d). עבד את הטקסט הגולמי לתמלול נקי ומדויק.", index+1, count)
	}

	return fmt.Sprintf("%s\n\n%s\n\nטקסט גולמי לעיבוד:\n%s", base, hint, rawText)
}
