package main

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/internal/editor"
	"github.com/khoahotran/folio/pkg/apperror"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// optional returns a pointer to the flag value when it was given. An empty
// value clears the field.
func optional(cmd *cobra.Command, name, value string) (*string, bool) {
	if !cmd.Flags().Changed(name) {
		return nil, false
	}
	if value == "" {
		return nil, true
	}
	v := value
	return &v, true
}

var projectKind = kind[project.Project]{
	use:   "projects",
	short: "Manage projects",
	remote: func(o *options) editor.Remote[project.Project] {
		return o.client().Projects(o.collectionOptions()...)
	},
	format: func(p project.Project) string {
		if p.Year != nil {
			return fmt.Sprintf("%s (%s)", p.Name, *p.Year)
		}
		return p.Name
	},
}

type projectFlags struct {
	name, description, year, url, logoURL string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Project name")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	cmd.Flags().StringVar(&f.year, "year", "", "Year label")
	cmd.Flags().StringVar(&f.url, "link", "", "Project URL")
	cmd.Flags().StringVar(&f.logoURL, "logo-url", "", "Logo URL")
}

func (f *projectFlags) apply(cmd *cobra.Command, p project.Project) project.Project {
	if cmd.Flags().Changed("name") {
		p.Name = f.name
	}
	if v, ok := optional(cmd, "description", f.description); ok {
		p.Description = v
	}
	if v, ok := optional(cmd, "year", f.year); ok {
		p.Year = v
	}
	if v, ok := optional(cmd, "link", f.url); ok {
		p.URL = v
	}
	if v, ok := optional(cmd, "logo-url", f.logoURL); ok {
		p.LogoURL = v
	}
	return p
}

func projectsCmd(o *options) *cobra.Command {
	var addFlags, editFlags projectFlags

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a project at the end of the list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			ed, err := loadEditor(ctx, o, projectKind)
			if err != nil {
				return err
			}
			ed.StartAdd()
			if err := ed.Save(ctx, addFlags.apply(cmd, project.Project{})); err != nil {
				return err
			}
			items := ed.Items()
			fmt.Fprintln(o.out, "added", items[len(items)-1].ID)
			return nil
		},
	}
	addFlags.register(add)

	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the given fields of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			ed, err := loadEditor(ctx, o, projectKind)
			if err != nil {
				return err
			}
			p, err := findItem(ed, args[0])
			if err != nil {
				return err
			}
			ed.StartEdit(p.ID)
			if err := ed.Save(ctx, editFlags.apply(cmd, p)); err != nil {
				return err
			}
			fmt.Fprintln(o.out, "updated", p.ID)
			return nil
		},
	}
	editFlags.register(edit)

	return collectionCmd(o, projectKind, add, edit)
}

var experienceKind = kind[experience.WorkExperience]{
	use:   "experiences",
	short: "Manage work experience",
	remote: func(o *options) editor.Remote[experience.WorkExperience] {
		return o.client().WorkExperiences(o.collectionOptions()...)
	},
	format: func(w experience.WorkExperience) string {
		end := "present"
		if w.EndDate != nil {
			end = w.EndDate.String()
		}
		return fmt.Sprintf("%s at %s, %s to %s", w.Title, w.Company, w.StartDate, end)
	},
}

type experienceFlags struct {
	company, title, start, end, description, logoURL string
}

func (f *experienceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.company, "company", "", "Company")
	cmd.Flags().StringVar(&f.title, "title", "", "Job title")
	cmd.Flags().StringVar(&f.start, "start", "", "Start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.end, "end", "", "End date, YYYY-MM-DD; empty means current")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	cmd.Flags().StringVar(&f.logoURL, "logo-url", "", "Logo URL")
}

func (f *experienceFlags) apply(cmd *cobra.Command, w experience.WorkExperience) (experience.WorkExperience, error) {
	if cmd.Flags().Changed("company") {
		w.Company = f.company
	}
	if cmd.Flags().Changed("title") {
		w.Title = f.title
	}
	if cmd.Flags().Changed("start") {
		d, err := experience.ParseDate(f.start)
		if err != nil {
			return w, apperror.NewInvalidInput(err.Error(), err)
		}
		w.StartDate = d
	}
	if cmd.Flags().Changed("end") {
		w.EndDate = nil
		if f.end != "" {
			d, err := experience.ParseDate(f.end)
			if err != nil {
				return w, apperror.NewInvalidInput(err.Error(), err)
			}
			w.EndDate = &d
		}
	}
	if v, ok := optional(cmd, "description", f.description); ok {
		w.Description = v
	}
	if v, ok := optional(cmd, "logo-url", f.logoURL); ok {
		w.LogoURL = v
	}
	return w, nil
}

func experiencesCmd(o *options) *cobra.Command {
	var addFlags, editFlags experienceFlags

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a work experience entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := addFlags.apply(cmd, experience.WorkExperience{})
			if err != nil {
				return err
			}
			ctx, cancel := o.context(cmd)
			defer cancel()
			ed, err := loadEditor(ctx, o, experienceKind)
			if err != nil {
				return err
			}
			ed.StartAdd()
			if err := ed.Save(ctx, item); err != nil {
				return err
			}
			items := ed.Items()
			fmt.Fprintln(o.out, "added", items[len(items)-1].ID)
			return nil
		},
	}
	addFlags.register(add)

	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the given fields of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			ed, err := loadEditor(ctx, o, experienceKind)
			if err != nil {
				return err
			}
			w, err := findItem(ed, args[0])
			if err != nil {
				return err
			}
			w, err = editFlags.apply(cmd, w)
			if err != nil {
				return err
			}
			ed.StartEdit(w.ID)
			if err := ed.Save(ctx, w); err != nil {
				return err
			}
			fmt.Fprintln(o.out, "updated", w.ID)
			return nil
		},
	}
	editFlags.register(edit)

	return collectionCmd(o, experienceKind, add, edit)
}

var imageKind = kind[image.Image]{
	use:   "images",
	short: "Manage the gallery",
	remote: func(o *options) editor.Remote[image.Image] {
		return o.client().Images(o.collectionOptions()...)
	},
	format: func(i image.Image) string {
		if i.AltText != nil {
			return fmt.Sprintf("%s %q", i.URL, *i.AltText)
		}
		return i.URL
	},
}

func contentTypeOf(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

func imagesCmd(o *options) *cobra.Command {
	var alt string

	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image to the end of the gallery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return apperror.NewInvalidInput("cannot read "+args[0], err)
			}
			ctx, cancel := o.context(cmd)
			defer cancel()

			images := o.client().Images(o.collectionOptions()...)
			img, err := images.Upload(ctx, filepath.Base(args[0]), contentTypeOf(args[0], data), data, nil)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("alt") {
				ed := editor.New[image.Image](images, o.editorOptions()...)
				if err := ed.Load(ctx); err != nil {
					return err
				}
				ed.StartEdit(img.ID)
				img.AltText = &alt
				if err := ed.Save(ctx, img); err != nil {
					return err
				}
			}
			fmt.Fprintln(o.out, "uploaded", img.ID, img.URL)
			return nil
		},
	}
	upload.Flags().StringVar(&alt, "alt", "", "Alt text (defaults to the file name)")

	var editAlt string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an image's alt text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			ed, err := loadEditor(ctx, o, imageKind)
			if err != nil {
				return err
			}
			img, err := findItem(ed, args[0])
			if err != nil {
				return err
			}
			if v, ok := optional(cmd, "alt", editAlt); ok {
				img.AltText = v
			}
			ed.StartEdit(img.ID)
			if err := ed.Save(ctx, img); err != nil {
				return err
			}
			fmt.Fprintln(o.out, "updated", img.ID)
			return nil
		},
	}
	edit.Flags().StringVar(&editAlt, "alt", "", "Alt text")

	return collectionCmd(o, imageKind, upload, edit)
}

func profileCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Show or change your profile"}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			p, err := o.client().Profile(ctx)
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Fprintln(o.out, "no profile yet, create one with: folioctl profile set")
				return nil
			}
			fmt.Fprintf(o.out, "username: %s\nname:     %s\ntitle:    %s\nsubtext:  %s\n",
				p.Username, p.Name, deref(p.CustomTitle), deref(p.CustomSubtext))
			return nil
		},
	})

	var username, name, title, subtext, avatar string
	set := &cobra.Command{
		Use:   "set",
		Short: "Create or update your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			c := o.client()
			current, err := c.Profile(ctx)
			if err != nil {
				return err
			}
			p := profile.Profile{}
			if current != nil {
				p = *current
			}
			if cmd.Flags().Changed("username") {
				p.Username = username
			}
			if cmd.Flags().Changed("name") {
				p.Name = name
			}
			if v, ok := optional(cmd, "title", title); ok {
				p.CustomTitle = v
			}
			if v, ok := optional(cmd, "subtext", subtext); ok {
				p.CustomSubtext = v
			}
			if v, ok := optional(cmd, "avatar-url", avatar); ok {
				p.AvatarURL = v
			}
			saved, err := c.SaveProfile(ctx, p)
			if err != nil {
				return err
			}
			fmt.Fprintln(o.out, "saved", saved.Username)
			return nil
		},
	}
	set.Flags().StringVar(&username, "username", "", "Public username")
	set.Flags().StringVar(&name, "name", "", "Display name")
	set.Flags().StringVar(&title, "title", "", "Headline")
	set.Flags().StringVar(&subtext, "subtext", "", "Short bio")
	set.Flags().StringVar(&avatar, "avatar-url", "", "Avatar URL")
	cmd.AddCommand(set)

	return cmd
}

func publicCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "public <username>",
		Short: "Print someone's public profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			pub, err := o.client().Public(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(o.out, "%s (@%s)\n", pub.Profile.Name, pub.Profile.Username)
			if pub.Profile.CustomTitle != nil {
				fmt.Fprintln(o.out, *pub.Profile.CustomTitle)
			}
			fmt.Fprintln(o.out, "\nExperience")
			printItems(o.out, experienceKind, pub.WorkExperiences)
			fmt.Fprintln(o.out, "\nProjects")
			printItems(o.out, projectKind, pub.Projects)
			fmt.Fprintln(o.out, "\nGallery")
			printItems(o.out, imageKind, pub.Images)
			return nil
		},
	}
}
